package server

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the session token payload. Roles use the "name" or
// "name:identifier" form, e.g. "family" or "custid:42".
type JWTClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret []byte
}

// NewJWTService returns nil when no secret is configured; sessions are
// then disabled and every request is a guest.
func NewJWTService(secret string) *JWTService {
	if secret != "" {
		return &JWTService{secret: []byte(secret)}
	}
	return nil
}

func (s *JWTService) Verify(tokenStr string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&JWTClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.secret, nil
		},
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

func (s *JWTService) Issue(subject string, roles []string, ttl time.Duration) (string, error) {
	claims := JWTClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
