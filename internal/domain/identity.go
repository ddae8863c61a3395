package domain

import "context"

// Identity is the resolved caller. The core trusts it verbatim.
type Identity struct {
	UserID string
	Email  string
	Admin  bool
}

type identityCtxKey struct{}

// WithIdentity stores the caller on the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFrom returns the caller stored by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok
}
