// Package site serves the embedded results dashboard.
package site

import (
	"context"
	"net/http"
)

// routeDashboard is the subtree under which the dashboard is mounted.
// The mux redirects the bare path to the trailing-slash form, so the
// embedded index answers GET /dashboard/ and GET /dashboard alike.
const routeDashboard = "/dashboard/"

// Register attaches the embedded dashboard routes to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	files := http.FileServer(FS())
	mux.Handle(routeDashboard, http.StripPrefix(routeDashboard, files))
}
