package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rpggio/hourly/internal/domain/contract"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

type actorKey struct{}

// ActorResolver resolves the actor behind a bearer token.
type ActorResolver interface {
	Resolve(ctx context.Context, token string) (contract.Actor, error)
}

// ActorFromContext returns the authenticated actor, if present.
func ActorFromContext(ctx context.Context) (contract.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(contract.Actor)
	return actor, ok
}

// WithActor returns ctx carrying actor.
func WithActor(ctx context.Context, actor contract.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(resolver ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			actor, err := resolver.Resolve(r.Context(), token)
			if err != nil || actor.ID == "" {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// StaticActorMiddleware runs every request as actor. Used when auth is off.
func StaticActorMiddleware(actor contract.Actor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
