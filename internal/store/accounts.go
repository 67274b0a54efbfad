package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/notevault/notevault/internal/model"
)

// CreateAccount inserts a new account. A missing ID is generated and the
// CreatedAt field is populated. Emails are deliberately not checked for
// uniqueness; duplicate emails produce distinct accounts.
func (q queries) CreateAccount(ctx context.Context, acct *model.Account) error {
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	acct.CreatedAt = time.Now().UTC()

	query := q.ext.Rebind("INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)")
	if _, err := q.ext.ExecContext(ctx, query, acct.ID, acct.Email, acct.CreatedAt); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetAccount returns an account by ID.
func (q queries) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	var acct model.Account
	query := q.ext.Rebind("SELECT * FROM users WHERE id = ?")
	if err := sqlx.GetContext(ctx, q.ext, &acct, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acct, nil
}
