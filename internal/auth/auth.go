package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
}

// TokenGenerator creates and validates admin access tokens.
type TokenGenerator interface {
	GenerateAccessToken(username string) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Claims represents JWT token claims
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Credentials is the single administrator account.
type Credentials struct {
	Username     string
	PasswordHash string
}
