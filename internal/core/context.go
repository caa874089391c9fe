package core

import (
	"context"
	"strings"
)

type contextKey string

const ctxKeyActor contextKey = "import_actor"

// SystemActor is recorded when no caller identity is available.
const SystemActor = "system"

// ContextWithActor stores the identity recorded on audit entries.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKeyActor, actor)
}

// ActorFromContext returns the stored actor or "".
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyActor).(string); ok {
		return v
	}
	return ""
}

// resolveActor prefers the explicit actor, then the context, then SystemActor.
func resolveActor(ctx context.Context, explicit string) string {
	if a := strings.TrimSpace(explicit); a != "" {
		return a
	}
	if a := strings.TrimSpace(ActorFromContext(ctx)); a != "" {
		return a
	}
	return SystemActor
}
