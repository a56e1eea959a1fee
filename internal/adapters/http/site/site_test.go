package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDashboardRoutes(t *testing.T) {
	Convey("Given a mux with the dashboard registered", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()
		Register(ctx, mux)

		Convey("Then /dashboard/ serves the index page", func() {
			req := httptest.NewRequest("GET", "/dashboard/", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")

			body := w.Body.String()
			So(body, ShouldContainSubstring, "ECG Classification Results")
			So(body, ShouldContainSubstring, "id=\"refresh-interval\"")
			So(body, ShouldContainSubstring, "id=\"refresh-control\"")
		})

		Convey("Then the index page carries the four tabs", func() {
			req := httptest.NewRequest("GET", "/dashboard/", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			body := w.Body.String()
			for _, tab := range []string{"prediction", "performance", "explorer", "robustness"} {
				So(body, ShouldContainSubstring, "data-tab=\""+tab+"\"")
			}
			So(body, ShouldContainSubstring, "id=\"case-select\"")
			So(body, ShouldContainSubstring, "id=\"run-analysis\"")
			So(body, ShouldContainSubstring, "id=\"analysis-progress\"")
		})

		Convey("Then /dashboard redirects to the subtree root", func() {
			req := httptest.NewRequest("GET", "/dashboard", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusMovedPermanently)
			So(w.Header().Get("Location"), ShouldEqual, "/dashboard/")
		})

		Convey("Then the stylesheet is served", func() {
			req := httptest.NewRequest("GET", "/dashboard/dashboard.css", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/css")
		})

		Convey("Then the script is served", func() {
			req := httptest.NewRequest("GET", "/dashboard/dashboard.js", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "javascript")
		})

		Convey("Then a missing asset answers 404", func() {
			req := httptest.NewRequest("GET", "/dashboard/missing.png", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then paths outside the subtree are not handled", func() {
			req := httptest.NewRequest("GET", "/elsewhere", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRegisterWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		Convey("Then registration panics", func() {
			So(func() {
				Register(context.Background(), nil)
			}, ShouldPanic)
		})
	})
}
