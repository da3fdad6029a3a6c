package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	appErrors "github.com/akeamc/skool/pkg/errors"
)

// TokenService verifies bearer tokens. Tokens are issued by the identity
// provider in front of this service; here they are only checked and the
// subject extracted.
type TokenService struct {
	secret []byte
}

// NewTokenService constructs a TokenService.
func NewTokenService(secret []byte) *TokenService {
	return &TokenService{secret: secret}
}

// Verify checks the token signature and expiry and returns the subject.
func (s *TokenService) Verify(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token subject")
	}
	return userID, nil
}

// Issue mints a token for the given user, mainly for tests and local use.
func (s *TokenService) Issue(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(s.secret)
}
