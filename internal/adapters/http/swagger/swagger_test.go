package swagger_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/minty99/maistats/internal/adapters/http/swagger"
)

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	return rec
}

func TestRegister(t *testing.T) {
	convey.Convey("Given a mux with the documentation routes", t, func() {
		mux := http.NewServeMux()
		swagger.Register(context.Background(), mux)

		convey.Convey("The OpenAPI document is served as YAML", func() {
			rec := get(mux, "/openapi.yaml")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
			convey.So(rec.Body.Bytes(), convey.ShouldResemble, swagger.Document())
		})

		convey.Convey("Every query route is documented", func() {
			body := string(swagger.Document())
			for _, path := range []string{"/status:", "/refresh:", "/scores:", "/playlogs:", "/options:", "/filters/scores:", "/endpoints:", "/songs/{title}/detail:"} {
				convey.So(body, convey.ShouldContainSubstring, path)
			}
		})

		convey.Convey("The viewer page points at the document", func() {
			rec := get(mux, "/api-docs")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, `spec-url="/openapi.yaml"`)
		})

		convey.Convey("Other methods are not routed", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/openapi.yaml", http.NoBody))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusMethodNotAllowed)
		})
	})

	convey.Convey("Registering on a nil mux panics", t, func() {
		convey.So(func() { swagger.Register(context.Background(), nil) }, convey.ShouldPanic)
	})

	convey.Convey("Document returns an independent copy", t, func() {
		doc := swagger.Document()
		doc[0] = '#'
		convey.So(bytes.HasPrefix(swagger.Document(), []byte("#")), convey.ShouldBeFalse)
	})
}
