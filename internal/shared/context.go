package shared

import "context"

type contextKey int

const actorContextKey contextKey = iota

// ContextWithActor stores the acting user's id for audit attribution.
func ContextWithActor(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actorContextKey, userID)
}

// ActorFromContext returns the acting user's id, or 0 when unattributed.
func ActorFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(actorContextKey).(int64); ok {
		return id
	}
	return 0
}
