package auth

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Context carries the verified identity of the caller for one request.
// Subject is always set once a token has been validated. UserID is set only
// when a local account exists for that subject; nil means the caller is
// authenticated but has not registered yet, which downstream handlers may
// or may not accept.
type Context struct {
	Subject string
	UserID  *primitive.ObjectID
}

// ctxKey is an unexported type for context keys defined in this package.
type ctxKey struct{}

// WithContext stores the verified identity on the request context.
func WithContext(ctx context.Context, ac Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, ac)
}

// FromContext returns the verified identity, if any. The second return
// reports whether the request passed through an auth gate at all.
func FromContext(ctx context.Context) (Context, bool) {
	if ctx == nil {
		return Context{}, false
	}
	ac, ok := ctx.Value(ctxKey{}).(Context)
	return ac, ok
}
