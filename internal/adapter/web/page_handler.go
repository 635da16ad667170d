package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Abdurahmanit/realestate-listings/internal/auth"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"go.uber.org/zap"
)

// HealthCheck reports whether a required backend answers.
type HealthCheck func(ctx context.Context) error

type PageHandler struct {
	health HealthCheck
	render *renderer
	logger *logger.Logger
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, r, http.StatusOK, "index.html", nil)
}

func (h *PageHandler) VIPLounge(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if id, ok := auth.IdentityFrom(r.Context()); ok {
		fmt.Fprintf(w, "Welcome to the party %s.", id.Username)
		return
	}
	fmt.Fprint(w, "Sorry, no guests allowed.")
}

func (h *PageHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}
