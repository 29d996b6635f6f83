// Package gateway performs JSON GET requests against the upstream providers
// and turns failures into typed, human-readable errors.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/minty99/maistats/pkg/logger"
	"github.com/minty99/maistats/pkg/metrics"
)

const defaultTimeout = 15 * time.Second

// Client issues requests to one upstream. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	log        logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        logger.Named("gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorBody is the provider error convention.
type errorBody struct {
	Message     *string `json:"message"`
	Code        *string `json:"code"`
	Maintenance *bool   `json:"maintenance"`
}

// GetJSON fetches url and decodes its JSON body into T. endpoint labels the
// request in metrics and logs.
func GetJSON[T any](ctx context.Context, c *Client, url, endpoint string) (T, error) {
	var zero T
	body, err := c.get(ctx, url, endpoint)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return zero, &nonJSONError{url: url}
	}
	return out, nil
}

// get performs the request and returns the body of a 2xx JSON response.
func (c *Client) get(ctx context.Context, url, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordGatewayRequest(endpoint, metrics.StatusClass(0), elapsed)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: GET %s: %w", ErrTransport, url, err)
	}
	defer resp.Body.Close()
	metrics.RecordGatewayRequest(endpoint, metrics.StatusClass(resp.StatusCode), elapsed)

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, fmt.Errorf("%w: read %s: %w", ErrTransport, url, readErr)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, StatusText: statusText(resp)}
		if isJSON(resp.Header) {
			var eb errorBody
			if json.Unmarshal(body, &eb) == nil {
				if eb.Message != nil {
					apiErr.Message = *eb.Message
				}
				if eb.Code != nil {
					apiErr.Code = *eb.Code
				}
				if eb.Maintenance != nil {
					apiErr.Maintenance = *eb.Maintenance
				}
			}
		}
		c.log.Debug(ctx, "upstream error",
			logger.String("endpoint", endpoint),
			logger.Int("status", resp.StatusCode),
			logger.String("url", url),
		)
		return nil, apiErr
	}

	if !isJSON(resp.Header) {
		return nil, &nonJSONError{url: url}
	}
	return body, nil
}

func isJSON(h http.Header) bool {
	mt, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		return strings.Contains(h.Get("Content-Type"), "application/json")
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// statusText returns the reason phrase of resp, e.g. "Not Found".
func statusText(resp *http.Response) string {
	if _, reason, ok := strings.Cut(resp.Status, " "); ok && reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}

// NormalizeBaseURL trims whitespace and trailing slashes.
func NormalizeBaseURL(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}
