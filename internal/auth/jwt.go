package auth

import (
	"errors"
	"fmt"
	"time"

	"voiceagent-platform/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// clockSkewLeeway tolerates small drift between this service and
// whatever issued the request's wall clock.
const clockSkewLeeway = 30 * time.Second

var ErrTokenInvalid = errors.New("auth: token invalid")

// Manager signs and verifies HS256 token pairs. One instance per
// process; the secret never leaves this struct.
type Manager struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("auth: JWT_SECRET is required")
	}
	return &Manager{
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.JWTIssuer,
		audience:   cfg.JWTAudience,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// IssuePair mints an access/refresh pair for one identity.
func (m *Manager) IssuePair(now time.Time, userID, workspaceID, role string) (TokenPair, error) {
	access, err := m.sign(now, Claims{
		UserID:      userID,
		WorkspaceID: workspaceID,
		Role:        role,
		TokenType:   TokenTypeAccess,
	}, m.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: sign access token: %w", err)
	}

	refresh, err := m.sign(now, Claims{
		UserID:      userID,
		WorkspaceID: workspaceID,
		TokenType:   TokenTypeRefresh,
	}, m.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: sign refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify parses and validates a token of the expected type.
// now is injectable so expiry behavior is testable.
func (m *Manager) Verify(tokenString string, expected TokenType, now time.Time) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if _, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(clockSkewLeeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}
	if err := jwt.NewValidator(opts...).Validate(claims.RegisteredClaims); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if err := claims.checkShape(expected); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func (c Claims) checkShape(expected TokenType) error {
	switch {
	case c.TokenType != expected:
		return fmt.Errorf("%w: token_type mismatch", ErrTokenInvalid)
	case c.UserID == "":
		return fmt.Errorf("%w: user_id missing", ErrTokenInvalid)
	case c.WorkspaceID == "":
		return fmt.Errorf("%w: workspace_id missing", ErrTokenInvalid)
	case expected == TokenTypeAccess && c.Role == "":
		return fmt.Errorf("%w: role missing in access token", ErrTokenInvalid)
	}
	return nil
}

func (m *Manager) sign(now time.Time, claims Claims, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}
