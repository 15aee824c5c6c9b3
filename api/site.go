package api

import (
	"net/http"
	"time"

	"github.com/garnizeh/innohub/internal/overview"
	"github.com/garnizeh/innohub/internal/web"
)

// SiteHandler serves the public pages.
type SiteHandler struct {
	overview *overview.Service
	now      func() time.Time
}

func NewSiteHandler(ov *overview.Service) *SiteHandler {
	return &SiteHandler{overview: ov, now: time.Now}
}

// Landing renders the public home page. It is recomputed on every request.
func (h *SiteHandler) Landing(w http.ResponseWriter, r *http.Request) {
	page, err := h.overview.Landing(r.Context(), h.now())
	if err != nil {
		web.Fail(w, r, err, "/")
		return
	}
	web.View(w, r, http.StatusOK, "main/index", web.Map{"page": page})
}
