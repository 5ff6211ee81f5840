package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	DisplayName string
	Role        enums.ActorRole
}

// AccessTokenClaims represents the typed JWT issued to dashboard clients.
// DisplayName doubles as the human-readable actor identity recorded on
// reveals and stock movements.
type AccessTokenClaims struct {
	UserID      uuid.UUID       `json:"user_id"`
	DisplayName string          `json:"display_name"`
	Role        enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
