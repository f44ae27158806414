package middleware

import (
	"net/http"
	"strings"

	"github.com/planboardhq/planboard-backend/api/responses"
	pkgAuth "github.com/planboardhq/planboard-backend/pkg/auth"
	"github.com/planboardhq/planboard-backend/pkg/config"
	pkgerrors "github.com/planboardhq/planboard-backend/pkg/errors"
	"github.com/planboardhq/planboard-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// resolved actor. Tokens are issued upstream; the planner only verifies.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actor := pkgAuth.Actor{ID: claims.UserID, Email: claims.Email, Role: claims.Role}
			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    actor.ID,
					"actor_role": string(actor.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken also accepts ?access_token= so browser websocket clients,
// which cannot set headers, can authenticate.
func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw != "" {
		return raw
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}
