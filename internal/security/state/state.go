// Package state firma y verifica el parámetro state del flujo de login de
// los conectores (JWT HS256).
package state

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidState     = errors.New("state: invalid")
	ErrProviderMismatch = errors.New("state: provider mismatch")
)

// Claims son los claims del state.
type Claims struct {
	Provider string `json:"prv"`
	jwtv5.RegisteredClaims
}

// Signer emite y verifica states firmados.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner crea un Signer. secret no puede ser vacío.
func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("state: empty secret")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Sign emite un state para providerID.
func (s *Signer) Sign(providerID string) (string, error) {
	now := s.now()
	claims := Claims{
		Provider: providerID,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(s.ttl)),
		},
	}
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("state: sign: %w", err)
	}
	return signed, nil
}

// Verify valida firma y expiración y que el state sea de providerID.
func (s *Signer) Verify(raw, providerID string) error {
	var claims Claims
	_, err := jwtv5.ParseWithClaims(raw, &claims, func(t *jwtv5.Token) (any, error) {
		return s.secret, nil
	},
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithTimeFunc(s.now),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if claims.Provider != providerID {
		return ErrProviderMismatch
	}
	return nil
}
