package actorcontext

import (
	"context"
	"strings"
)

// ActorContextKey is the request context key for the identity resolved by the identity provider.
type ActorContextKey struct{}

// WithActorID stores the caller identity in the context.
func WithActorID(ctx context.Context, actorID string) context.Context {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return ctx
	}
	return context.WithValue(ctx, ActorContextKey{}, actorID)
}

// ActorIDFromContext returns the caller identity from context, if set.
func ActorIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(ActorContextKey{}).(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}
