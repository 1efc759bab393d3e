package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"quizhub/internal/quiz"
)

// SQLiteStore implements the catalog, attempt and user repositories on a
// single SQLite database with foreign keys enforced.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "quiz.db"
	}

	db, err := sql.Open("sqlite3", withConnectionFlags(path))
	if err != nil {
		return nil, err
	}

	// One connection serializes writers; busy_timeout covers other processes.
	db.SetMaxOpenConns(1)

	store := newStore(db)
	if err := store.checkForeignKeys(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func newStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db: db,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) checkForeignKeys(ctx context.Context) error {
	var enabled int
	if err := s.db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&enabled); err != nil {
		return err
	}
	if enabled != 1 {
		return errors.New("sqlite foreign key enforcement is off")
	}
	return nil
}

func withConnectionFlags(path string) string {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	return path + separator + "_foreign_keys=on&_busy_timeout=5000"
}

// classify maps SQLite constraint failures onto domain errors. duplicate is
// returned for unique violations when the caller has a more specific meaning
// for them; everything else becomes quiz.ErrConstraintViolation.
func classify(err error, duplicate error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch sqliteErr.Code {
	case sqlite3.ErrConstraint:
		if duplicate != nil && (sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
			return fmt.Errorf("%w: %v", duplicate, err)
		}
		return fmt.Errorf("%w: %v", quiz.ErrConstraintViolation, err)
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return fmt.Errorf("%w: %v", quiz.ErrConstraintViolation, err)
	default:
		return err
	}
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, quiz.ErrNotFound)
	}
	return err
}

func fromUnixNano(value int64) time.Time {
	return time.Unix(0, value).UTC()
}
