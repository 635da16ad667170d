package web

import (
	"bytes"
	"context"
	"html"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Abdurahmanit/realestate-listings/internal/auth"
	"github.com/Abdurahmanit/realestate-listings/internal/listing/domain"
	"github.com/Abdurahmanit/realestate-listings/internal/listing/usecase"
	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	userdomain "github.com/Abdurahmanit/realestate-listings/internal/user/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockListingService struct{ mock.Mock }

func (m *MockListingService) ListAll(ctx context.Context) ([]*domain.Listing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}
func (m *MockListingService) Get(ctx context.Context, id, viewerID string) (*domain.ListingView, error) {
	args := m.Called(ctx, id, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ListingView), args.Error(1)
}
func (m *MockListingService) Create(ctx context.Context, in usecase.CreateListingInput, ownerID string) (string, error) {
	args := m.Called(ctx, in, ownerID)
	return args.String(0), args.Error(1)
}
func (m *MockListingService) Update(ctx context.Context, id string, patch domain.ListingPatch, requesterID string) (*domain.Listing, error) {
	args := m.Called(ctx, id, patch, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingService) Delete(ctx context.Context, id, requesterID string) error {
	return m.Called(ctx, id, requesterID).Error(0)
}
func (m *MockListingService) CanEdit(ctx context.Context, id, requesterID string) (*domain.Listing, error) {
	args := m.Called(ctx, id, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

type MockFavoriteService struct{ mock.Mock }

func (m *MockFavoriteService) Favorite(ctx context.Context, listingID, userID string) error {
	return m.Called(ctx, listingID, userID).Error(0)
}
func (m *MockFavoriteService) Unfavorite(ctx context.Context, listingID, userID string) error {
	return m.Called(ctx, listingID, userID).Error(0)
}

type MockPhotoService struct{ mock.Mock }

func (m *MockPhotoService) Enabled() bool { return m.Called().Bool(0) }
func (m *MockPhotoService) UploadPhoto(ctx context.Context, listingID, requesterID, fileName string, data []byte) (string, error) {
	args := m.Called(ctx, listingID, requesterID, fileName, data)
	return args.String(0), args.Error(1)
}

type MockUserService struct{ mock.Mock }

func (m *MockUserService) SignUp(ctx context.Context, username, email, password string) (*userdomain.User, error) {
	args := m.Called(ctx, username, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userdomain.User), args.Error(1)
}
func (m *MockUserService) SignIn(ctx context.Context, username, password string) (*userdomain.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userdomain.User), args.Error(1)
}

type testApp struct {
	t         *testing.T
	handler   http.Handler
	sessions  *auth.SessionManager
	listings  *MockListingService
	favorites *MockFavoriteService
	photos    *MockPhotoService
	users     *MockUserService
	healthErr error
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	app := &testApp{
		t:         t,
		sessions:  auth.NewSessionManager("test-secret", time.Hour, false, nil, logger.NewNop()),
		listings:  new(MockListingService),
		favorites: new(MockFavoriteService),
		photos:    new(MockPhotoService),
		users:     new(MockUserService),
	}
	h, err := NewRouter(RouterDeps{
		ServiceName: "listing-web-test",
		Listings:    app.listings,
		Favorites:   app.favorites,
		Photos:      app.photos,
		Users:       app.users,
		Sessions:    app.sessions,
		Health:      func(context.Context) error { return app.healthErr },
		Logger:      logger.NewNop(),
	})
	require.NoError(t, err)
	app.handler = h
	return app
}

// client carries cookies between requests like a browser.
type client struct {
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) anonymous() *client {
	return &client{app: a, cookies: map[string]*http.Cookie{}}
}

func (a *testApp) signedIn(userID, username string) *client {
	a.t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(a.t, a.sessions.Issue(rec, userID, username))
	c := a.anonymous()
	c.keep(rec.Result().Cookies())
	return c
}

func (c *client) keep(cookies []*http.Cookie) {
	for _, ck := range cookies {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	rec := httptest.NewRecorder()
	c.app.handler.ServeHTTP(rec, req)
	c.keep(rec.Result().Cookies())
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

var csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// csrfToken loads a form page and returns the token embedded in it.
func (c *client) csrfToken(formPath string) string {
	c.app.t.Helper()
	rec := c.get(formPath)
	require.Equal(c.app.t, http.StatusOK, rec.Code, rec.Body.String())
	m := csrfInput.FindStringSubmatch(rec.Body.String())
	require.Len(c.app.t, m, 2, "no csrf token on %s", formPath)
	return html.UnescapeString(m[1])
}

func (c *client) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) postMultipart(path string, fields map[string]string, fileField, fileName string, data []byte) *httptest.ResponseRecorder {
	c.app.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(c.app.t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(c.app.t, err)
		_, err = fw.Write(data)
		require.NoError(c.app.t, err)
	}
	require.NoError(c.app.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}
