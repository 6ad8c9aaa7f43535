package jwt

import "context"

type identityContextKey struct{}

// SetIdentity stores a verified identity in the context.
func SetIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// GetIdentity returns the identity stored by SetIdentity.
func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
