package swagger

import (
	"context"
	"net/http"
)

// Mount points for the rendered reference and the raw document.
const (
	routeDocs     = "/api-docs"
	routeDocument = "/openapi.yaml"
)

// Register attaches the API reference routes to mux: routeDocs serves a
// ReDoc shell and routeDocument the embedded OpenAPI YAML it renders.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc(routeDocs, serveDocs)
	mux.HandleFunc(routeDocument, serveDocument)
}

func serveDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsHTML))
}

func serveDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(OpenAPI)
}

// docsHTML is a minimal ReDoc shell pointed at the embedded document.
const docsHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>ECG Classification API Reference</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
    <script>Redoc.init('/openapi.yaml', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`
