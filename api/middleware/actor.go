package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/furnistore/furnistore-backend/pkg/logger"
)

const actorIDHeader = "X-Actor-Id"

type actorIDKey struct{}

// Actor extracts the caller identity from the X-Actor-Id header. Identity is
// asserted by the upstream gateway; an absent or malformed header just means
// an anonymous request here.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if raw := r.Header.Get(actorIDHeader); raw != "" {
				if actorID, err := uuid.Parse(raw); err == nil {
					ctx = context.WithValue(ctx, actorIDKey{}, actorID)
					if logg != nil {
						ctx = logg.WithActorID(ctx, actorID.String())
					}
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext returns the authenticated actor id, if any.
func ActorFromContext(ctx context.Context) (uuid.UUID, bool) {
	actorID, ok := ctx.Value(actorIDKey{}).(uuid.UUID)
	return actorID, ok
}
