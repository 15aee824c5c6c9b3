package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/garnizeh/innohub/internal/web"
)

// Pinger reports whether the database answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type SystemHandler struct {
	DB Pinger
}

func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			logger.Error("health check failed", slog.Any("err", err))
			web.JSON(w, web.Map{"status": "unavailable", "service": "innohub"}, http.StatusServiceUnavailable)
			return
		}
	}
	web.JSON(w, web.Map{"status": "ok", "service": "innohub"}, http.StatusOK)
}

func (h *SystemHandler) VersionHandler(version, buildTime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		web.JSON(w, web.Map{"version": version, "buildTime": buildTime}, http.StatusOK)
	}
}
