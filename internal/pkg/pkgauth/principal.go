package pkgauth

import "context"

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   int64
	Username string
	Token    string
}

type principalContextKey struct{}

// WithPrincipal stores p into the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// FromContext returns the principal stored in ctx, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
