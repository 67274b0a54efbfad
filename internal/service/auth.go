package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/notevault/notevault/internal/model"
	"github.com/notevault/notevault/internal/secret"
	"github.com/notevault/notevault/internal/store"
)

var (
	// ErrInvalidCredentials covers every client-side authentication failure:
	// missing header, unknown prefix, and secret mismatch. It deliberately
	// doesn't say which, so callers can't probe the key table.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrValidation marks missing or malformed caller input.
	ErrValidation = errors.New("validation")
)

// Principal is the authenticated identity derived from a verified
// credential. It lives for the duration of one request and is never
// persisted.
type Principal struct {
	AccountID string
	KeyID     string
	Scope     []string
}

// AuthService owns key issuance and credential verification.
type AuthService struct {
	store  *store.Store
	hasher *secret.Hasher
}

// NewAuthService returns an AuthService backed by the given store and hasher.
func NewAuthService(st *store.Store, hasher *secret.Hasher) *AuthService {
	return &AuthService{store: st, hasher: hasher}
}

// IssueKeyParams are the inputs to IssueKey. Exactly one of Email and
// AccountID selects the owning account: Email creates a fresh account,
// AccountID adds a key to an existing one.
type IssueKeyParams struct {
	Name      string
	Scope     []string
	Email     string
	AccountID string
}

// IssuedKey pairs the persisted key record with the plaintext credential.
// The plaintext exists only here; storage holds its hash.
type IssuedKey struct {
	Key       model.APIKey
	Plaintext string
}

// IssueKey generates a credential of the form "<unix-seconds>.<uuid>",
// hashes it, and persists the key record. All writes happen inside one
// transaction so a failure can't leave an orphaned account.
//
// The prefix has second resolution and may collide across concurrent
// issuance; uniqueness of the full credential rests on the random token.
func (s *AuthService) IssueKey(ctx context.Context, p IssueKeyParams) (*IssuedKey, error) {
	if p.Name == "" || len(p.Scope) == 0 {
		return nil, fmt.Errorf("%w: name and scope are required", ErrValidation)
	}
	if p.Email == "" && p.AccountID == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}

	prefix := strconv.FormatInt(time.Now().Unix(), 10)
	plaintext := prefix + "." + uuid.NewString()

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, err
	}

	var issued model.APIKey
	err = s.store.Transact(ctx, func(tx *store.Tx) error {
		accountID := p.AccountID
		if accountID == "" {
			acct := model.Account{Email: p.Email}
			if err := tx.CreateAccount(ctx, &acct); err != nil {
				return err
			}
			accountID = acct.ID
		}

		key := model.APIKey{
			AccountID:  accountID,
			Name:       p.Name,
			Scope:      p.Scope,
			SecretHash: hash,
			Prefix:     prefix,
		}
		if err := tx.CreateAPIKey(ctx, &key); err != nil {
			return err
		}

		// Read the row back before committing. A miss here means the store
		// is inconsistent and the whole issuance must be abandoned.
		persisted, err := tx.GetAPIKey(ctx, accountID, key.ID)
		if err != nil {
			return fmt.Errorf("read back issued key: %w", err)
		}
		issued = *persisted
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &IssuedKey{Key: issued, Plaintext: plaintext}, nil
}

// ValidateCredential resolves a presented credential to a Principal.
//
// The segment before the first "." is the lookup prefix. Because prefixes
// are timestamps with second resolution, several keys can share one prefix;
// the full credential is verified against every candidate and the first
// match wins. A credential without a separator yields an unknown prefix and
// fails the lookup like any other bad key.
func (s *AuthService) ValidateCredential(ctx context.Context, credential string) (*Principal, error) {
	if credential == "" {
		return nil, ErrInvalidCredentials
	}
	prefix, _, _ := strings.Cut(credential, ".")

	candidates, err := s.store.GetAPIKeysByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("look up api key: %w", err)
	}

	for i := range candidates {
		ok, err := s.hasher.Verify(credential, candidates[i].SecretHash)
		if err != nil {
			return nil, err
		}
		if ok {
			return &Principal{
				AccountID: candidates[i].AccountID,
				KeyID:     candidates[i].ID,
				Scope:     candidates[i].Scope,
			}, nil
		}
	}
	return nil, ErrInvalidCredentials
}
