package workspace

import (
	_ "embed"
	"net/http"
)

//go:embed index.html
var indexHTML []byte

// ServeIndex serves the embedded workspace page.
func (ws *Workspace) ServeIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}
