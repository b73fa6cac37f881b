package auth

import "context"

type ctxKey struct{}

// UserContext is what the transport layer learns about the caller.
type UserContext struct {
	UserID string
	Role   string
}

const RoleAdmin = "admin"

func WithUser(ctx context.Context, u UserContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func GetUser(ctx context.Context) (UserContext, bool) {
	u, ok := ctx.Value(ctxKey{}).(UserContext)
	return u, ok
}

// CanWrite is the write-authorized gate checked by every store mutation.
// Sign-in happens elsewhere; only an admin role opens the gate.
func CanWrite(ctx context.Context) bool {
	u, ok := GetUser(ctx)
	return ok && u.Role == RoleAdmin
}

// WithWriteAuthorized marks ctx as write-authorized for trusted in-process callers.
func WithWriteAuthorized(ctx context.Context) context.Context {
	return WithUser(ctx, UserContext{UserID: "system", Role: RoleAdmin})
}
