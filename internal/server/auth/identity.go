// Package auth holds the authentication and authorization primitives of the
// server: password verification, signed session tokens carrying an Identity,
// and the guard deciding whether an identity may see a resource.
package auth

import "context"

// Identity is the snapshot of an authenticated caller kept for the life of a
// session. It never contains credentials.
type Identity struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the caller identity stored by WithIdentity, or
// nil when the request is anonymous.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}
