package utils // package utils provides credential hashing and session cookie helpers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSessionToken is returned for any cookie that does not carry a
// well-formed, correctly signed, unexpired session envelope.
var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims wraps a session id for the cookie. The id (jti) is what the
// session store is keyed by; sub and role are informational.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SignSessionToken builds an HS256 token around the session id. exp should
// be the session's fixed expiry so the cookie and the store agree.
func SignSessionToken(secret, sessionID string, userID uint64, role string, issued, exp time.Time) (string, error) {
	claims := SessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseSessionToken validates the signature and expiry and returns the
// session id it carries.
func ParseSessionToken(secret, raw string) (string, error) {
	var claims SessionClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid || claims.ID == "" {
		return "", ErrInvalidSessionToken
	}
	return claims.ID, nil
}

// NewSessionID returns 32 random bytes, hex encoded.
func NewSessionID() (string, error) {
	return randomHex(32)
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
