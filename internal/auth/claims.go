package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the only claims shape this service signs or accepts.
//
// Multi-tenant invariant: workspace_id is present on every token; no
// endpoint resolves a tenant any other way. Refresh tokens carry no
// role, so a stolen refresh token cannot be replayed as an access token.
type Claims struct {
	jwt.RegisteredClaims

	UserID      string    `json:"user_id"`
	WorkspaceID string    `json:"workspace_id"`
	Role        string    `json:"role,omitempty"`
	TokenType   TokenType `json:"token_type"`
}
