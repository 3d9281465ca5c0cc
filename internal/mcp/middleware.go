package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/hourly/internal/domain/contract"
)

type contextKey int

const actorKey contextKey = iota

// WithActor returns ctx carrying actor.
func WithActor(ctx context.Context, actor contract.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the calling actor. The zero Actor has no role
// and is rejected by every tool.
func ActorFromContext(ctx context.Context) contract.Actor {
	v, _ := ctx.Value(actorKey).(contract.Actor)
	return v
}

// ActorResolver resolves the actor behind a bearer token.
type ActorResolver interface {
	Resolve(ctx context.Context, token string) (contract.Actor, error)
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver ActorResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol methods
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}
			if resolver == nil {
				return nil, fmt.Errorf("unauthorized: no key store configured")
			}

			actor, err := resolver.Resolve(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}

			return next(WithActor(ctx, actor), method, req)
		}
	}
}

// noAuthMiddleware runs every call as actor.
func noAuthMiddleware(actor contract.Actor) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(WithActor(ctx, actor), method, req)
		}
	}
}
