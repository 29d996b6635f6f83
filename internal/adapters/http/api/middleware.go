package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/minty99/maistats/pkg/metrics"
)

// instrument counts requests to h and observes their latency under name.
func instrument(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		h(rec, r)

		code := strconv.Itoa(rec.status())
		metrics.RecordHTTPRequest(name, r.Method, code)
		metrics.RecordHTTPRequestDuration(name, r.Method, code, float64(time.Since(start).Microseconds())/1000)
	}
}

// statusRecorder remembers the first status code written.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.code == 0 {
		r.code = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) status() int {
	if r.code == 0 {
		return http.StatusOK
	}
	return r.code
}
