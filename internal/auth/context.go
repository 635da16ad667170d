package auth

import "context"

type contextKey string

const identityCtxKey = contextKey("identity")

// Identity is the authenticated user behind a request.
type Identity struct {
	UserID   string
	Username string
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, id)
}

func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityCtxKey).(*Identity)
	return id, ok && id != nil
}

// UserIDFrom returns "" for anonymous requests.
func UserIDFrom(ctx context.Context) string {
	if id, ok := IdentityFrom(ctx); ok {
		return id.UserID
	}
	return ""
}
