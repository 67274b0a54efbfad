package model

import "time"

// APIKey represents an issued credential bound to an account and a scope.
// The raw credential is never stored; only a bcrypt hash and the cleartext
// prefix used for lookup are persisted.
//
// A credential has the form "<prefix>.<token>". The prefix is the Unix
// timestamp (seconds) of issuance and is NOT unique: concurrent issuance in
// the same second produces colliding prefixes, so lookups must treat the
// prefix as a candidate filter, never as an identifier.
type APIKey struct {
	ID         string    `json:"id" db:"id"`
	AccountID  string    `json:"uid" db:"uid"`
	Name       string    `json:"name" db:"name"`
	Scope      []string  `json:"scope" db:"-"`
	SecretHash string    `json:"-" db:"api_key"` // bcrypt hash, never expose
	Prefix     string    `json:"prefix" db:"prefix"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// KeySummary is the public view of an API key returned by list and update
// endpoints. It carries neither the hash nor the plaintext credential.
type KeySummary struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Scope  []string `json:"scope"`
	Prefix string   `json:"prefix"`
}

// Summary returns the public view of the key.
func (k *APIKey) Summary() KeySummary {
	return KeySummary{
		ID:     k.ID,
		Name:   k.Name,
		Scope:  k.Scope,
		Prefix: k.Prefix,
	}
}

// Scope values understood by the authorization layer. A key's scope is an
// ordered list of strings but is treated as a set; ScopeAll matches any
// required scope.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeAll   = "*"
)

// HasScope reports whether the key's scope grants the required scope.
func HasScope(scope []string, required string) bool {
	for _, s := range scope {
		if s == required || s == ScopeAll {
			return true
		}
	}
	return false
}
