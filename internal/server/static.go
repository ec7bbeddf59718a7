package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// StaticHandler serves the built single-page frontend. Unknown paths fall
// back to index.html so client-side routes survive a hard refresh; API paths
// never fall through to the frontend.
type StaticHandler struct {
	dir string
}

// NewStaticHandler creates a handler serving files from dir. An empty dir
// disables static serving; the handler then answers 404 for everything.
func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir}
}

// Routes returns the catch-all route.
func (h *StaticHandler) Routes() []string {
	return []string{"/"}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.dir == "" || strings.HasPrefix(r.URL.Path, "/api/") {
		http.NotFound(w, r)
		return
	}

	// Reject traversal before touching the filesystem.
	clean := filepath.Clean("/" + r.URL.Path)
	target := filepath.Join(h.dir, clean)

	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		http.ServeFile(w, r, target)
		return
	}

	index := filepath.Join(h.dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, index)
}
