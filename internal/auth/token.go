package auth

import (
	"errors"
	"strings"
	"time"

	"cartview/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (i *Issuer) Issue(user domain.User, ttl time.Duration) (string, error) {
	if strings.TrimSpace(user.ID) == "" {
		return "", errors.New("user id required")
	}
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(i.secret)
}

func (i *Issuer) Verify(tokenStr string) (*domain.User, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &domain.User{ID: c.Subject, Email: c.Email}, nil
}
