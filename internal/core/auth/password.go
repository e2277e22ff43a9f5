package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxSecretBytes bcrypt 只比较前 72 字节
const MaxSecretBytes = 72

var (
	ErrEmptySecret   = errors.New("password must not be empty")
	ErrSecretTooLong = errors.New("password must be at most 72 bytes")
)

// Hasher derives and checks bcrypt credential representations. A zero Hasher
// uses bcrypt.DefaultCost, which keeps a verification in the tens of
// milliseconds.
type Hasher struct {
	Cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{Cost: cost}
}

// Derive draws a fresh salt on every call, so equal secrets never share a
// representation.
func (h *Hasher) Derive(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	if len(secret) > MaxSecretBytes {
		return "", ErrSecretTooLong
	}
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify never fails loudly: a malformed representation is just a mismatch.
// Secrets longer than MaxSecretBytes never match; otherwise bcrypt would accept
// any secret sharing the first 72 bytes.
func (h *Hasher) Verify(secret, representation string) bool {
	if secret == "" || len(secret) > MaxSecretBytes || representation == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(representation), []byte(secret)) == nil
}
