package model

import "time"

// Note is a single note owned by an account. The server assigns ID and
// CreatedAt; title and description are caller-supplied.
type Note struct {
	ID          string    `json:"id" db:"id"`
	AccountID   string    `json:"uid" db:"uid"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
}

// NotePatch is a partial update to a note. Nil fields are left untouched;
// at least one field must be present for an update to be valid.
type NotePatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Empty reports whether the patch carries no changes.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Description == nil
}
