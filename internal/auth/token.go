// Package auth issues and verifies the HS256 bearer tokens the API accepts.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"psych-assessment-service/internal/domain"
)

const (
	DemoUID   = "demo-user"
	DemoEmail = "cliente@demo.com"
)

var errEmptySecret = errors.New("auth secret is empty")

// Claims carries the identity attached to a session token.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Demo  bool   `json:"demo,omitempty"`
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration, issuer string) (*Issuer, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}, nil
}

// Issue signs a token for user.
func (i *Issuer) Issue(user domain.User) (string, error) {
	if user.UID == "" {
		return "", domain.ErrUserRequired
	}
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   user.UID,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		Email: user.Email,
		Demo:  user.IsDemo,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token and returns the user it was issued for. Every failure
// wraps domain.ErrUnauthenticated.
func (i *Issuer) Verify(token string) (domain.User, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return domain.User{}, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithTimeFunc(i.now))
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return domain.User{}, fmt.Errorf("%w: invalid claims", domain.ErrUnauthenticated)
	}
	return domain.User{UID: claims.Subject, Email: claims.Email, IsDemo: claims.Demo}, nil
}

// DemoUser is the shared demonstration account. Its submissions are never stored.
func DemoUser() domain.User {
	return domain.User{UID: DemoUID, Email: DemoEmail, IsDemo: true}
}

func IsDemoEmail(email string) bool {
	return strings.EqualFold(strings.TrimSpace(email), DemoEmail)
}
