package secret

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := New(bcrypt.MinCost)

	digest, err := h.Hash("1700000000.deadbeef")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if digest == "1700000000.deadbeef" {
		t.Fatal("digest equals the plaintext")
	}
	if !strings.HasPrefix(digest, "$2a$") {
		t.Errorf("digest = %q, want bcrypt format", digest)
	}

	ok, err := h.Verify("1700000000.deadbeef", digest)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("Verify = false for matching secret")
	}
}

func TestVerifyMismatch(t *testing.T) {
	h := New(bcrypt.MinCost)

	digest, err := h.Hash("correct-secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	// A clean mismatch is not an error.
	ok, err := h.Verify("wrong-secret", digest)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("Verify = true for non-matching secret")
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	h := New(bcrypt.MinCost)

	ok, err := h.Verify("anything", "not-a-bcrypt-digest")
	if err == nil {
		t.Error("expected error for malformed digest")
	}
	if ok {
		t.Error("Verify = true for malformed digest")
	}
}

func TestHashIsSalted(t *testing.T) {
	h := New(bcrypt.MinCost)

	a, err := h.Hash("same-secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash("same-secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Error("two hashes of the same secret are identical; salt missing")
	}
}

func TestNewClampsInvalidCost(t *testing.T) {
	for _, cost := range []int{-1, 0, bcrypt.MaxCost + 1, 99} {
		h := New(cost)
		if h.cost != bcrypt.DefaultCost {
			t.Errorf("New(%d).cost = %d, want %d", cost, h.cost, bcrypt.DefaultCost)
		}
	}

	h := New(bcrypt.MinCost)
	if h.cost != bcrypt.MinCost {
		t.Errorf("New(MinCost).cost = %d, want %d", h.cost, bcrypt.MinCost)
	}
}
