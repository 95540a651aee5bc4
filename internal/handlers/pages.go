package handlers

import (
	"io/fs"
	"net/http"
)

// PageHandler serves the embedded HTML pages.
type PageHandler struct {
	pages fs.FS
}

// NewPageHandler creates a PageHandler reading from pages, which must
// contain pages/ask.html, pages/mod.html and pages/spotlight.html.
func NewPageHandler(pages fs.FS) *PageHandler {
	return &PageHandler{pages: pages}
}

// Ask serves the attendee submission page.
func (h *PageHandler) Ask(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "pages/ask.html")
}

// Moderator serves the moderation page.
func (h *PageHandler) Moderator(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "pages/mod.html")
}

// Spotlight serves the live display page.
func (h *PageHandler) Spotlight(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "pages/spotlight.html")
}

func (h *PageHandler) serve(w http.ResponseWriter, r *http.Request, name string) {
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFileFS(w, r, h.pages, name)
}
