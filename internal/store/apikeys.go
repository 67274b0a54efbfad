package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/notevault/notevault/internal/model"
)

// apiKeyRow maps 1:1 to the api_keys table. Scope is stored as a JSON array
// string, so the model's []string doesn't scan directly.
type apiKeyRow struct {
	ID         string    `db:"id"`
	AccountID  string    `db:"uid"`
	Name       string    `db:"name"`
	ScopeJSON  string    `db:"scope"`
	SecretHash string    `db:"api_key"`
	Prefix     string    `db:"prefix"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r apiKeyRow) toModel() (model.APIKey, error) {
	var scope []string
	if err := json.Unmarshal([]byte(r.ScopeJSON), &scope); err != nil {
		return model.APIKey{}, fmt.Errorf("decode key scope: %w", err)
	}
	return model.APIKey{
		ID:         r.ID,
		AccountID:  r.AccountID,
		Name:       r.Name,
		Scope:      scope,
		SecretHash: r.SecretHash,
		Prefix:     r.Prefix,
		CreatedAt:  r.CreatedAt,
	}, nil
}

// CreateAPIKey inserts a new API key record. SecretHash must already be set.
// A missing ID is generated and CreatedAt is populated.
func (q queries) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	if key.ID == "" {
		key.ID = uuid.NewString()
	}
	key.CreatedAt = time.Now().UTC()

	scopeJSON, err := json.Marshal(key.Scope)
	if err != nil {
		return fmt.Errorf("encode key scope: %w", err)
	}

	query := q.ext.Rebind(`INSERT INTO api_keys (id, uid, name, scope, api_key, prefix, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err = q.ext.ExecContext(ctx, query,
		key.ID, key.AccountID, key.Name, string(scopeJSON), key.SecretHash, key.Prefix, key.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// GetAPIKey returns a key by ID, constrained to the owning account.
func (q queries) GetAPIKey(ctx context.Context, accountID, id string) (*model.APIKey, error) {
	var row apiKeyRow
	query := q.ext.Rebind("SELECT * FROM api_keys WHERE uid = ? AND id = ?")
	if err := sqlx.GetContext(ctx, q.ext, &row, query, accountID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key: %w", err)
	}
	key, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// GetAPIKeysByPrefix returns every key whose prefix matches. Prefixes have
// second resolution and are not unique, so callers must verify the presented
// secret against each candidate.
func (q queries) GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]model.APIKey, error) {
	var rows []apiKeyRow
	query := q.ext.Rebind("SELECT * FROM api_keys WHERE prefix = ?")
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, prefix); err != nil {
		return nil, fmt.Errorf("get api keys by prefix: %w", err)
	}

	keys := make([]model.APIKey, 0, len(rows))
	for _, r := range rows {
		key, err := r.toModel()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ListAPIKeys returns every key owned by the account, newest first.
func (q queries) ListAPIKeys(ctx context.Context, accountID string) ([]model.APIKey, error) {
	var rows []apiKeyRow
	query := q.ext.Rebind("SELECT * FROM api_keys WHERE uid = ? ORDER BY created_at DESC")
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, accountID); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}

	keys := make([]model.APIKey, 0, len(rows))
	for _, r := range rows {
		key, err := r.toModel()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// UpdateAPIKey updates the name and scope of a key, constrained to the
// owning account.
func (q queries) UpdateAPIKey(ctx context.Context, key *model.APIKey) error {
	scopeJSON, err := json.Marshal(key.Scope)
	if err != nil {
		return fmt.Errorf("encode key scope: %w", err)
	}

	query := q.ext.Rebind("UPDATE api_keys SET name = ?, scope = ? WHERE uid = ? AND id = ?")
	if _, err := q.ext.ExecContext(ctx, query, key.Name, string(scopeJSON), key.AccountID, key.ID); err != nil {
		return fmt.Errorf("update api key: %w", err)
	}
	return nil
}

// DeleteAPIKey removes a single key, constrained to the owning account.
// Deleting a key that doesn't exist is not an error.
func (q queries) DeleteAPIKey(ctx context.Context, accountID, id string) error {
	query := q.ext.Rebind("DELETE FROM api_keys WHERE uid = ? AND id = ?")
	if _, err := q.ext.ExecContext(ctx, query, accountID, id); err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	return nil
}

// DeleteAPIKeys removes every key owned by the account.
func (q queries) DeleteAPIKeys(ctx context.Context, accountID string) error {
	query := q.ext.Rebind("DELETE FROM api_keys WHERE uid = ?")
	if _, err := q.ext.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("delete api keys: %w", err)
	}
	return nil
}
