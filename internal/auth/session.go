package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const CookieName = "session"

var (
	ErrNoSession      = errors.New("no session")
	ErrInvalidSession = errors.New("invalid session")
)

// RevocationStore remembers signed-out sessions.
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	store  RevocationStore
	now    func() time.Time
	logger *logger.Logger
}

// NewSessionManager accepts a nil store; sign-out then only clears the cookie.
func NewSessionManager(secret string, ttl time.Duration, secure bool, store RevocationStore, log *logger.Logger) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		store:  store,
		now:    time.Now,
		logger: log.Named("SessionManager"),
	}
}

// Issue signs a session token for the user and sets it as the session cookie.
func (m *SessionManager) Issue(w http.ResponseWriter, userID, username string) error {
	now := m.now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	http.SetCookie(w, m.cookie(token, now.Add(m.ttl)))
	return nil
}

// CurrentUser resolves the request's session cookie. Anonymous requests yield ErrNoSession.
func (m *SessionManager) CurrentUser(r *http.Request) (*Identity, error) {
	claims, err := m.claims(r)
	if err != nil {
		return nil, err
	}
	if m.store != nil {
		revoked, err := m.store.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check session revocation: %w", err)
		}
		if revoked {
			return nil, ErrInvalidSession
		}
	}
	return &Identity{UserID: claims.UserID, Username: claims.Username}, nil
}

// Revoke invalidates the request's session and clears the cookie.
func (m *SessionManager) Revoke(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, m.cookie("", time.Unix(0, 0)))

	claims, err := m.claims(r)
	if err != nil || m.store == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(m.now())
	if err := m.store.Revoke(r.Context(), claims.ID, ttl); err != nil {
		m.logger.Error("failed to revoke session", zap.String("user_id", claims.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (m *SessionManager) claims(r *http.Request) (*Claims, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		m.logger.Debug("rejected session token", zap.Error(err))
		return nil, ErrInvalidSession
	}
	if claims.UserID == "" || claims.ID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

func (m *SessionManager) cookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	}
	return c
}
