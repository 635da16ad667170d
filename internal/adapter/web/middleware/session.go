package middleware

import (
	"errors"
	"net/http"

	"github.com/Abdurahmanit/realestate-listings/internal/auth"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"go.uber.org/zap"
)

type SessionResolver interface {
	CurrentUser(r *http.Request) (*auth.Identity, error)
}

// LoadIdentity puts the session user, if any, on the request context.
// Requests with a missing, invalid or unverifiable session continue anonymously.
func LoadIdentity(sessions SessionResolver, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := sessions.CurrentUser(r)
			switch {
			case err == nil:
				r = r.WithContext(auth.WithIdentity(r.Context(), id))
			case errors.Is(err, auth.ErrNoSession), errors.Is(err, auth.ErrInvalidSession):
			default:
				log.Warn("session lookup failed, treating request as anonymous", zap.String("path", r.URL.Path), zap.Error(err))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession redirects anonymous requests to the sign-in page.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.IdentityFrom(r.Context()); !ok {
			http.Redirect(w, r, "/auth/sign-in", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
