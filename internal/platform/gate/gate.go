// Package gate implements the admin access gate: a six-digit passkey is
// exchanged for a short-lived signed session token, which protects the admin
// routes. The passkey comparison is constant-time and the failure message
// never reveals which part of the check failed.
package gate

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidPasskey is returned for any passkey that does not match. The
// message is deliberately uniform.
var ErrInvalidPasskey = errors.New("invalid passkey")

// ErrInvalidToken is returned when a session token is missing, malformed,
// expired, or signed with the wrong key.
var ErrInvalidToken = errors.New("invalid or expired session")

// Gate validates passkeys and issues admin session tokens.
type Gate struct {
	passkey    string
	signingKey []byte
	ttl        time.Duration

	// now is swappable in tests.
	now func() time.Time
}

// New creates a Gate for the configured passkey. Tokens are HS256-signed
// with signingKey and expire after ttl.
func New(passkey string, signingKey []byte, ttl time.Duration) *Gate {
	return &Gate{
		passkey:    passkey,
		signingKey: signingKey,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Validate checks a candidate passkey in constant time.
func (g *Gate) Validate(candidate string) error {
	if g.passkey == "" {
		return ErrInvalidPasskey
	}
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(g.passkey)) != 1 {
		return ErrInvalidPasskey
	}
	return nil
}

// Issue validates the passkey and, on success, returns a signed session
// token together with its expiry.
func (g *Gate) Issue(candidate string) (string, time.Time, error) {
	if err := g.Validate(candidate); err != nil {
		return "", time.Time{}, err
	}

	now := g.now()
	expiresAt := now.Add(g.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}

	return signed, expiresAt, nil
}

// Check verifies a session token. Returns ErrInvalidToken for every failure
// mode.
func (g *Gate) Check(tokenString string) error {
	if tokenString == "" {
		return ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.signingKey, nil
	}, jwt.WithTimeFunc(g.now))
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject != "admin" {
		return ErrInvalidToken
	}

	return nil
}

// EncodeKey obfuscates a token for client-side storage. This is encoding,
// not encryption; the server-side signature is the actual protection.
func EncodeKey(token string) string {
	return base64.StdEncoding.EncodeToString([]byte(token))
}

// DecodeKey reverses EncodeKey. Returns ErrInvalidToken for malformed input.
func DecodeKey(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidToken
	}
	return string(raw), nil
}

// TokenStore abstracts where a client keeps its session token between
// requests.
type TokenStore interface {
	Get() (string, bool)
	Set(token string)
	Clear()
}

// MemoryTokenStore is an in-process TokenStore used by tests and the
// embedded admin client.
type MemoryTokenStore struct {
	token string
	set   bool
}

// NewMemoryTokenStore creates an empty token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Get() (string, bool) {
	if !s.set {
		return "", false
	}
	return s.token, true
}

func (s *MemoryTokenStore) Set(token string) {
	s.token = token
	s.set = true
}

func (s *MemoryTokenStore) Clear() {
	s.token = ""
	s.set = false
}
