package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Abdurahmanit/realestate-listings/internal/adapter/web/middleware"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	userdomain "github.com/Abdurahmanit/realestate-listings/internal/user/domain"
	"go.uber.org/zap"
)

type UserService interface {
	SignUp(ctx context.Context, username, email, password string) (*userdomain.User, error)
	SignIn(ctx context.Context, username, password string) (*userdomain.User, error)
}

type SessionService interface {
	Issue(w http.ResponseWriter, userID, username string) error
	Revoke(w http.ResponseWriter, r *http.Request) error
}

type AuthHandler struct {
	users    UserService
	sessions SessionService
	render   *renderer
	logger   *logger.Logger
}

func (h *AuthHandler) SignUpForm(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, r, http.StatusOK, "auth/sign-up.html", nil)
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	form := map[string]string{"username": username, "email": email}

	if confirm, ok := r.PostForm["confirmPassword"]; ok && confirm[0] != password {
		h.render.render(w, r, http.StatusBadRequest, "auth/sign-up.html", &viewData{Error: "Password and Confirm Password must match", Form: form})
		return
	}

	user, err := h.users.SignUp(r.Context(), username, email, password)
	switch {
	case errors.Is(err, userdomain.ErrUsernameTaken):
		h.render.render(w, r, http.StatusConflict, "auth/sign-up.html", &viewData{Error: "Username already taken.", Form: form})
		return
	case errors.Is(err, userdomain.ErrValidation):
		h.render.render(w, r, http.StatusBadRequest, "auth/sign-up.html", &viewData{Error: err.Error(), Form: form})
		return
	case err != nil:
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.sessions.Issue(w, user.ID, user.Username); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	middleware.RotateCSRFToken(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) SignInForm(w http.ResponseWriter, r *http.Request) {
	h.render.render(w, r, http.StatusOK, "auth/sign-in.html", nil)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")

	user, err := h.users.SignIn(r.Context(), username, r.PostForm.Get("password"))
	if errors.Is(err, userdomain.ErrInvalidCredentials) {
		h.render.render(w, r, http.StatusUnauthorized, "auth/sign-in.html", &viewData{
			Error: "Login failed. Please try again.",
			Form:  map[string]string{"username": username},
		})
		return
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.sessions.Issue(w, user.ID, user.Username); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	middleware.RotateCSRFToken(w, r)
	h.logger.Info("user signed in", zap.String("user_id", user.ID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Revoke(w, r); err != nil {
		h.logger.Warn("sign-out could not revoke session", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
