package middleware

import (
	"net/http"
	"strings"

	"github.com/talentgrid/talentgrid/internal/actor"
	"github.com/talentgrid/talentgrid/internal/api/response"
)

// Header names populated by the upstream auth gateway. This service never
// sees credentials, only the resolved identity.
const (
	actorIDHeader   = "X-Actor-Id"
	actorRoleHeader = "X-Actor-Role"
)

// RequireActor rejects requests without a gateway-resolved actor identity
// and places the actor into the request context for downstream use.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(actorIDHeader))
		if id == "" {
			response.Error(w, http.StatusUnauthorized,
				"MISSING_ACTOR", "Missing actor identity headers", nil)
			return
		}

		a := actor.Actor{
			ID:   id,
			Role: strings.TrimSpace(r.Header.Get(actorRoleHeader)),
		}
		next.ServeHTTP(w, r.WithContext(actor.WithActor(r.Context(), a)))
	})
}

// RequireRole returns middleware that checks the actor's role. Used for the
// admin-only job posting management routes.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := actor.FromContext(r.Context())
			if ok {
				for _, role := range roles {
					if a.Role == role {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Insufficient permissions", nil)
		})
	}
}
