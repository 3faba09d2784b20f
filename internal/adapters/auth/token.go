package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"eventcheckin/internal/domain"
)

var (
	// ErrMissingSubject is returned for a well-signed token that names no user.
	ErrMissingSubject = errors.New("token has no subject")
	// ErrInvalidSubject is returned when the subject is not a user UUID.
	ErrInvalidSubject = errors.New("token subject is not a valid user id")
)

type jwtClaims struct {
	jwt.RegisteredClaims
}

type jwtVerifier struct {
	secret []byte
	leeway time.Duration
	now    func() time.Time
}

// NewJWTVerifier returns a TokenVerifier that accepts HS256 tokens signed with
// secret. The user ID is the token subject, which must be a UUID.
func NewJWTVerifier(secret string, leeway time.Duration) domain.TokenVerifier {
	return &jwtVerifier{secret: []byte(secret), leeway: leeway, now: time.Now}
}

func (v *jwtVerifier) Verify(tokenString string) (string, error) {
	var claims jwtClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", fmt.Errorf("failed to verify token: %w", err)
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", ErrInvalidSubject
	}
	return claims.Subject, nil
}
