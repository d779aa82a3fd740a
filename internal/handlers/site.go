package handlers

import (
	"net/http"
	"os"
	"path/filepath"
)

const loginPage = "login.html"

// SiteHandler serves the showcase's static build
type SiteHandler struct {
	dir   string
	files http.Handler
}

// NewSiteHandler serves files from dir
func NewSiteHandler(dir string) *SiteHandler {
	return &SiteHandler{
		dir:   dir,
		files: http.FileServer(http.Dir(dir)),
	}
}

// Files serves the gated site content
func (h *SiteHandler) Files(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "private, no-cache")
	h.files.ServeHTTP(w, r)
}

// Login serves the password prompt. It is reachable without a session.
func (h *SiteHandler) Login(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.dir, loginPage)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, path)
}
