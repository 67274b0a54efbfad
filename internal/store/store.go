package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row matching both the entity ID and the
// owning account cannot be found.
var ErrNotFound = errors.New("not found")

// Store persists accounts, API keys, and notes behind a shared connection
// pool. Queries are written with ? placeholders and rebound per driver, so
// the same store runs against SQLite, MySQL, and PostgreSQL.
type Store struct {
	queries
	db *sqlx.DB
}

// Open connects to the database described by dsn and runs migrations.
//
// The driver is selected from the DSN scheme:
//
//	""                      in-memory SQLite (tests, zero-config dev)
//	mysql://<native dsn>    MySQL via go-sql-driver
//	postgres://...          PostgreSQL via pgx
//	anything else           SQLite database file path
func Open(dsn string) (*Store, error) {
	driver, dataSource := resolveDriver(dsn)

	db, err := sqlx.Connect(driver, dataSource)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == "sqlite" {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	}

	s := &Store{queries: queries{ext: db}, db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func resolveDriver(dsn string) (driver, dataSource string) {
	switch {
	case dsn == "":
		return "sqlite", ":memory:"
	case strings.HasPrefix(dsn, "mysql://"):
		ds := strings.TrimPrefix(dsn, "mysql://")
		// Scanning DATETIME columns into time.Time requires parseTime.
		if !strings.Contains(ds, "parseTime") {
			if strings.Contains(ds, "?") {
				ds += "&parseTime=true"
			} else {
				ds += "?parseTime=true"
			}
		}
		return "mysql", ds
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", dsn
	default:
		return "sqlite", dsn
	}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx groups multiple statements into a single transaction. All entity
// methods are available on it.
type Tx struct {
	queries
}

// Transact runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func (s *Store) Transact(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&Tx{queries{ext: tx}}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback (%v) after: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// queries holds the entity methods shared by Store and Tx. ext is either the
// pool or an open transaction.
type queries struct {
	ext sqlx.ExtContext
}
