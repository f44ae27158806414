package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/planboardhq/planboard-backend/pkg/enums"
)

// AccessTokenClaims is the typed JWT the upstream identity provider issues.
// The planner trusts these claims as-is; it never authenticates credentials
// itself.
type AccessTokenClaims struct {
	UserID string          `json:"user_id"`
	Email  string          `json:"email"`
	Role   enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor is the resolved request identity carried through the context.
type Actor struct {
	ID    string
	Email string
	Role  enums.ActorRole
}
