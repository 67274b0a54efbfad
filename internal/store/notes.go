package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/notevault/notevault/internal/model"
)

// CreateNote inserts a note owned by accountID and returns the persisted
// row. The server assigns the ID and CreatedAt.
func (q queries) CreateNote(ctx context.Context, accountID, title, description string) (*model.Note, error) {
	note := model.Note{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		CreatedAt:   time.Now().UTC(),
		Title:       title,
		Description: description,
	}

	query := q.ext.Rebind(`INSERT INTO notes (id, uid, created_at, title, description)
		VALUES (?, ?, ?, ?, ?)`)
	_, err := q.ext.ExecContext(ctx, query,
		note.ID, note.AccountID, note.CreatedAt, note.Title, note.Description)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}

	return q.GetNote(ctx, accountID, note.ID)
}

// GetNote returns a note by ID, constrained to the owning account.
func (q queries) GetNote(ctx context.Context, accountID, id string) (*model.Note, error) {
	var note model.Note
	query := q.ext.Rebind("SELECT * FROM notes WHERE uid = ? AND id = ?")
	if err := sqlx.GetContext(ctx, q.ext, &note, query, accountID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return &note, nil
}

// ListNotes returns every note owned by the account.
func (q queries) ListNotes(ctx context.Context, accountID string) ([]model.Note, error) {
	notes := []model.Note{}
	query := q.ext.Rebind("SELECT * FROM notes WHERE uid = ? ORDER BY created_at")
	if err := sqlx.SelectContext(ctx, q.ext, &notes, query, accountID); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// UpdateNote applies a partial update and returns the updated row. Only the
// fields present in the patch are touched. The WHERE clause constrains both
// the note ID and the owning account, so one account can never modify
// another's notes. Returns ErrNotFound when the account owns no such note.
func (q queries) UpdateNote(ctx context.Context, accountID, id string, patch model.NotePatch) (*model.Note, error) {
	if patch.Empty() {
		return nil, errors.New("empty patch")
	}

	var (
		sets []string
		args []interface{}
	)
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	args = append(args, accountID, id)

	query := q.ext.Rebind("UPDATE notes SET " + strings.Join(sets, ", ") + " WHERE uid = ? AND id = ?")
	if _, err := q.ext.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}

	// MySQL reports only changed rows, not matched rows, so RowsAffected
	// can't distinguish "missing" from "identical values". The read-back
	// surfaces ErrNotFound reliably on every driver.
	return q.GetNote(ctx, accountID, id)
}

// DeleteNote removes a note, constrained to the owning account. Deleting a
// note that doesn't exist is not an error; the operation is idempotent.
func (q queries) DeleteNote(ctx context.Context, accountID, id string) error {
	query := q.ext.Rebind("DELETE FROM notes WHERE uid = ? AND id = ?")
	if _, err := q.ext.ExecContext(ctx, query, accountID, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
