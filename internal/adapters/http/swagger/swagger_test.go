package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestRegisterServesReference(t *testing.T) {
	convey.Convey("Given a mux with the reference routes attached", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w
		}

		convey.Convey("When fetching the raw document", func() {
			w := get(routeDocument)

			convey.Convey("Then the embedded YAML is served verbatim", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
				convey.So(w.Body.String(), convey.ShouldEqual, string(OpenAPI))
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "ECG Classification API")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/clinical-report/{caseId}")
			})
		})

		convey.Convey("When fetching the rendered reference", func() {
			w := get(routeDocs)

			convey.Convey("Then the ReDoc shell points at the document route", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "ECG Classification API Reference")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "redoc-container")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, routeDocument)
			})
		})
	})
}

func TestRegisterNilMux(t *testing.T) {
	convey.Convey("Given no mux to attach to", t, func() {
		convey.Convey("Then Register panics rather than registering nothing", func() {
			convey.So(func() { Register(context.Background(), nil) }, convey.ShouldPanic)
		})
	})
}
