// Package session issues and verifies signed session tokens. A token binds
// a logged-in phone number for a limited validity window; verification is
// stateless, so restarting the process does not invalidate sessions.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/eldermate/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the registered claims plus the owning phone number.
type Claims struct {
	jwt.RegisteredClaims
	Phone string `json:"phone"`
}

// Manager signs and parses session tokens with a shared HMAC secret.
type Manager struct {
	secret   []byte
	validity time.Duration

	now func() time.Time
}

func NewManager(secret string, validity time.Duration) *Manager {
	return &Manager{secret: []byte(secret), validity: validity, now: time.Now}
}

// Issue creates a token for phone, valid from now for the configured window.
func (m *Manager) Issue(phone string) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.validity)),
		},
		Phone: phone,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%w: signing session token: %v", common.ErrorInternal, err)
	}
	return signed, nil
}

// Phone verifies tokenString and returns the phone it was issued for.
// Expired tokens return common.ErrTokenExpired; any other verification
// failure returns common.ErrInvalidToken.
func (m *Manager) Phone(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Phone == "" {
		return "", common.ErrInvalidToken
	}
	return claims.Phone, nil
}
