package middleware

import (
	"context"
	"net/http"

	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"github.com/justinas/nosurf"
	"go.uber.org/zap"
)

// CSRFFormField is the form field that carries the anti-forgery token.
const CSRFFormField = nosurf.FormFieldName

type csrfHandlerKey struct{}

// CSRF rejects unsafe requests without a valid per-session token with 403.
func CSRF(secureCookie bool, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		var h *nosurf.CSRFHandler
		h = nosurf.New(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfHandlerKey{}, h)))
		}))
		h.SetBaseCookie(http.Cookie{
			Path:     "/",
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   nosurf.MaxAge,
		})
		h.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Warn("csrf check failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.NamedError("reason", nosurf.Reason(r)))
			http.Error(w, "Forbidden: invalid or missing CSRF token", http.StatusForbidden)
		}))
		return h
	}
}

// CSRFToken returns the masked token to embed in forms.
func CSRFToken(r *http.Request) string {
	return nosurf.Token(r)
}

// RotateCSRFToken replaces the token cookie, invalidating tokens issued before a sign-in.
func RotateCSRFToken(w http.ResponseWriter, r *http.Request) {
	if h, ok := r.Context().Value(csrfHandlerKey{}).(*nosurf.CSRFHandler); ok {
		h.RegenerateToken(w, r)
	}
}
