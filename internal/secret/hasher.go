package secret

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher produces and verifies salted one-way digests of opaque secret
// strings. bcrypt embeds the salt in its output, so no separate salt storage
// is needed, and comparison happens inside the primitive rather than on raw
// bytes.
type Hasher struct {
	cost int
}

// New returns a Hasher using the given bcrypt cost. Costs outside bcrypt's
// valid range fall back to the default cost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// NewDefault returns a Hasher with the default bcrypt cost.
func NewDefault() *Hasher {
	return New(bcrypt.DefaultCost)
}

// Hash returns the bcrypt digest of secret. An error indicates a primitive
// malfunction and is an internal condition, never a caller-input problem.
func (h *Hasher) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether secret matches the stored digest. A clean mismatch
// returns (false, nil); an error is returned only when the digest is
// malformed or the primitive itself fails.
func (h *Hasher) Verify(secret, hashed string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("verify secret: %w", err)
	}
}
