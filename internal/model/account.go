package model

import "time"

// Account is the owner of notes and API keys. Accounts are created either
// implicitly at key issuance (email flow) or explicitly via the CLI. Email
// is caller-supplied and deliberately not checked for uniqueness or format;
// two issuance calls with the same email produce two distinct accounts.
type Account struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
