package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var ErrEmptySecret = errors.New("empty signing secret")

// Signer issues and verifies HS256 JWTs with a shared secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret), now: time.Now}, nil
}

// Sign returns a compact JWS whose payload is claims plus "iat".
func (s *Signer) Sign(claims map[string]any) (string, error) {
	tok := jwt.New()
	for k, v := range claims {
		if err := tok.Set(k, v); err != nil {
			return "", fmt.Errorf("set claim %q: %w", k, err)
		}
	}
	if err := tok.Set(jwt.IssuedAtKey, s.now()); err != nil {
		return "", fmt.Errorf("set claim %q: %w", jwt.IssuedAtKey, err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// Parse verifies raw and returns its private (non-registered) claims.
func (s *Signer) Parse(raw string) (map[string]any, error) {
	tok, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.HS256, s.secret), jwt.WithValidate(true))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return tok.PrivateClaims(), nil
}
