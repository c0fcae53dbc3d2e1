package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/charity-reminder/internal"
)

type Service struct {
	credentials    Credentials
	tokenGenerator TokenGenerator
	logger         *slog.Logger
}

func NewService(credentials Credentials, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		credentials:    credentials,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

// Authenticate checks the admin credentials and returns an access token.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if appErr := dto.Validate(); appErr != nil {
		return AuthTokens{}, appErr
	}

	userMatches := subtle.ConstantTimeCompare([]byte(dto.Username), []byte(s.credentials.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(s.credentials.PasswordHash), []byte(dto.Password))
	if !userMatches || passErr != nil {
		s.logger.WarnContext(ctx, "admin login rejected", "username", dto.Username)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokenGenerator.GenerateAccessToken(s.credentials.Username)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to issue access token", "error", err)
		return AuthTokens{}, internal.NewInternalError("failed to issue access token", err)
	}

	s.logger.InfoContext(ctx, "admin logged in", "username", s.credentials.Username)
	return AuthTokens{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

// HashPassword creates a bcrypt hash for the admin_password_hash setting.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
