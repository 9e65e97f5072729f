package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

type actorKey struct{}

const defaultActor = "system"

// WithActor stores the caller identity on ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor returns who issued the request, used only to attribute runs in logs.
func GetActor(ctx context.Context) string {
	if val, ok := ctx.Value(actorKey{}).(string); ok && val != "" {
		return val
	}

	// Fallback to metadata
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get("x-user-id"); len(val) > 0 && val[0] != "" {
			return val[0]
		}
	}
	return defaultActor
}
