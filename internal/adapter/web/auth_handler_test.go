package web

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/Abdurahmanit/realestate-listings/internal/auth"
	userdomain "github.com/Abdurahmanit/realestate-listings/internal/user/domain"
	"github.com/justinas/nosurf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSignIn_IssuesSessionCookie(t *testing.T) {
	app := newTestApp(t)
	app.users.On("SignIn", mock.Anything, "alice", "secret1").Return(&userdomain.User{ID: "u1", Username: "alice"}, nil)
	c := app.anonymous()

	rec := c.postForm("/auth/sign-in", url.Values{
		"csrf_token": {c.csrfToken("/auth/sign-in")},
		"username":   {"alice"},
		"password":   {"secret1"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	require.Contains(t, c.cookies, auth.CookieName)

	rec = c.get("/vip-lounge")
	assert.Equal(t, "Welcome to the party alice.", rec.Body.String())
}

func TestSignIn_RotatesCSRFToken(t *testing.T) {
	app := newTestApp(t)
	app.users.On("SignIn", mock.Anything, "alice", "secret1").Return(&userdomain.User{ID: "u1", Username: "alice"}, nil)
	c := app.anonymous()

	anonymousToken := c.csrfToken("/auth/sign-in")
	require.Contains(t, c.cookies, nosurf.CookieName)
	anonymousCookie := c.cookies[nosurf.CookieName].Value

	rec := c.postForm("/auth/sign-in", url.Values{
		"csrf_token": {anonymousToken},
		"username":   {"alice"},
		"password":   {"secret1"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotEqual(t, anonymousCookie, c.cookies[nosurf.CookieName].Value)

	rec = c.postForm("/listings", url.Values{
		"csrf_token":    {anonymousToken},
		"streetAddress": {"1 Main St"},
		"city":          {"Springfield"},
		"price":         {"100"},
		"size":          {"10"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	app.listings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)

	app.listings.On("Delete", mock.Anything, "l1", "u1").Return(nil)
	rec = c.postForm("/listings/l1", url.Values{
		"csrf_token": {c.csrfToken("/listings/new")},
		"_method":    {"DELETE"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	app := newTestApp(t)
	app.users.On("SignIn", mock.Anything, "alice", "nope").Return(nil, userdomain.ErrInvalidCredentials)
	c := app.anonymous()

	rec := c.postForm("/auth/sign-in", url.Values{
		"csrf_token": {c.csrfToken("/auth/sign-in")},
		"username":   {"alice"},
		"password":   {"nope"},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Login failed. Please try again.")
	assert.NotContains(t, c.cookies, auth.CookieName)
}

func TestSignUp(t *testing.T) {
	app := newTestApp(t)
	app.users.On("SignUp", mock.Anything, "carol", "carol@example.com", "secret1").Return(&userdomain.User{ID: "u3", Username: "carol"}, nil)
	c := app.anonymous()

	rec := c.postForm("/auth/sign-up", url.Values{
		"csrf_token":      {c.csrfToken("/auth/sign-up")},
		"username":        {"carol"},
		"email":           {"carol@example.com"},
		"password":        {"secret1"},
		"confirmPassword": {"secret1"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, c.cookies, auth.CookieName)
}

func TestSignUp_Rejections(t *testing.T) {
	app := newTestApp(t)
	app.users.On("SignUp", mock.Anything, "alice", "", "secret1").Return(nil, userdomain.ErrUsernameTaken)
	c := app.anonymous()
	token := c.csrfToken("/auth/sign-up")

	rec := c.postForm("/auth/sign-up", url.Values{"csrf_token": {token}, "username": {"alice"}, "password": {"secret1"}, "confirmPassword": {"other"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must match")

	rec = c.postForm("/auth/sign-up", url.Values{"csrf_token": {token}, "username": {"alice"}, "password": {"secret1"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username already taken.")
}

func TestSignOut(t *testing.T) {
	app := newTestApp(t)
	c := app.signedIn("u1", "alice")

	rec := c.get("/auth/sign-out")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotContains(t, c.cookies, auth.CookieName)

	assert.Equal(t, "Sorry, no guests allowed.", c.get("/vip-lounge").Body.String())
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	rec := app.anonymous().get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	app.healthErr = errors.New("mongo unreachable")
	rec = app.anonymous().get("/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIndexPage(t *testing.T) {
	app := newTestApp(t)
	rec := app.anonymous().get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/auth/sign-in"`)
}
