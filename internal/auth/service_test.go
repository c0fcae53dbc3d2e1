package auth_test

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/auth"
)

const secret = "0123456789abcdef0123456789abcdef"

var _ = Describe("Auth Service", func() {
	var (
		ctx     context.Context
		now     time.Time
		tokens  *auth.JWTTokenGenerator
		service *auth.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2024, time.September, 28, 8, 30, 0, 0, time.UTC)
		tokens = auth.NewJWTTokenGenerator(secret, time.Hour).WithNow(func() time.Time { return now })

		hash, err := auth.HashPassword("correct_password")
		Expect(err).NotTo(HaveOccurred())
		service = auth.NewService(auth.Credentials{Username: "admin", PasswordHash: hash}, tokens, testLogger())
	})

	Describe("Authenticate", func() {
		It("issues a bearer token for the admin", func() {
			result, err := service.Authenticate(ctx, auth.LoginDTO{Username: "admin", Password: "correct_password"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.TokenType).To(Equal("Bearer"))
			Expect(result.ExpiresAt).To(Equal(now.Add(time.Hour)))

			claims, err := service.ValidateAccessToken(result.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Username).To(Equal("admin"))
			Expect(claims.Subject).To(Equal("admin"))
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{Username: "admin", Password: "wrong"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("rejects an unknown username", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{Username: "root", Password: "correct_password"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("validates the request first", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{Username: "admin"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("ValidateToken", func() {
		It("reports expired tokens", func() {
			token, _, err := tokens.GenerateAccessToken("admin")
			Expect(err).NotTo(HaveOccurred())

			now = now.Add(2 * time.Hour)
			_, err = tokens.ValidateToken(token)
			Expect(err).To(MatchError(internal.ErrTokenExpired))
		})

		It("rejects tokens signed with another secret", func() {
			other := auth.NewJWTTokenGenerator("ffffffffffffffffffffffffffffffff", time.Hour).WithNow(func() time.Time { return now })
			token, _, err := other.GenerateAccessToken("admin")
			Expect(err).NotTo(HaveOccurred())

			_, err = tokens.ValidateToken(token)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("rejects tokens from another issuer", func() {
			claims := &auth.Claims{
				Username: "admin",
				RegisteredClaims: jwt.RegisteredClaims{
					Issuer:    "someone-else",
					ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				},
			}
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
			Expect(err).NotTo(HaveOccurred())

			_, err = tokens.ValidateToken(token)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("rejects garbage", func() {
			_, err := tokens.ValidateToken("not-a-jwt")
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})
	})

	It("refuses to hash an empty password", func() {
		_, err := auth.HashPassword("")
		Expect(err).To(HaveOccurred())
	})
})
