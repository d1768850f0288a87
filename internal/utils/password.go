package utils

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	saltBytes = 16
	keyLen    = 64
)

// CredentialHasher derives scrypt keys with fixed cost parameters. The
// serialized credential is "hex(key).hex(salt)"; the hex salt string itself
// is the scrypt salt input.
type CredentialHasher struct {
	N, R, P int
}

// DefaultHasher uses the usual interactive-login scrypt parameters.
var DefaultHasher = CredentialHasher{N: 16384, R: 8, P: 1}

// NewCredentialHasher returns a hasher, filling zero parameters from DefaultHasher.
func NewCredentialHasher(n, r, p int) CredentialHasher {
	h := DefaultHasher
	if n > 0 {
		h.N = n
	}
	if r > 0 {
		h.R = r
	}
	if p > 0 {
		h.P = p
	}
	return h
}

// Hash salts and derives plain. A derivation error means the parameters are
// misconfigured and is returned as-is.
func (h CredentialHasher) Hash(plain string) (string, error) {
	salt, err := randomHex(saltBytes)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key, err := scrypt.Key([]byte(plain), []byte(salt), h.N, h.R, h.P, keyLen)
	if err != nil {
		return "", fmt.Errorf("derive key: %w", err)
	}
	return hex.EncodeToString(key) + "." + salt, nil
}

// Verify re-derives plain with the stored salt and compares in constant time.
// A malformed stored credential yields false with a nil error.
func (h CredentialHasher) Verify(stored, plain string) (bool, error) {
	i := strings.LastIndexByte(stored, '.')
	if i <= 0 || i == len(stored)-1 {
		return false, nil
	}
	want, err := hex.DecodeString(stored[:i])
	if err != nil || len(want) != keyLen {
		return false, nil
	}
	salt := stored[i+1:]
	if _, err := hex.DecodeString(salt); err != nil {
		return false, nil
	}
	got, err := scrypt.Key([]byte(plain), []byte(salt), h.N, h.R, h.P, keyLen)
	if err != nil {
		return false, fmt.Errorf("derive key: %w", err)
	}
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// HashPassword hashes with DefaultHasher.
func HashPassword(plain string) (string, error) {
	return DefaultHasher.Hash(plain)
}

// VerifyPassword safely compares a stored credential and a plain password.
func VerifyPassword(stored, plain string) (bool, error) {
	return DefaultHasher.Verify(stored, plain)
}
