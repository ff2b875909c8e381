package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Profile names the write contract applied by Materialize. Profiles are
// an explicit configuration choice per store schema, replacing runtime
// column introspection.
type Profile string

const (
	// ProfileCore writes the sequence counter, the task row, its cdata
	// row, the thread subsystem and the search index.
	ProfileCore Profile = "core"

	// ProfileForms is ProfileCore plus the form-entry records for stores
	// that model tasks as form submissions.
	ProfileForms Profile = "forms"
)

// ValidProfile reports whether p names a known write contract.
func ValidProfile(p Profile) bool {
	return p == ProfileCore || p == ProfileForms
}

// maxOpenConns bounds the connection pool. Materialization is a single
// writer; the extra connections serve the reentrant read-only calendar
// path.
const maxOpenConns = 4

// TraceFunc receives every statement Materialize executes, with its
// arguments. Wired to stdout under --verbose.
type TraceFunc func(query string, args ...any)

// Store is the handle to the record store. Construct it once with Open;
// it carries its own pool and is safe for concurrent readers.
type Store struct {
	db             *sql.DB
	profile        Profile
	trace          TraceFunc
	systemIdentity string
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithProfile selects the write contract. Default is ProfileForms.
func WithProfile(p Profile) Option {
	return func(s *Store) { s.profile = p }
}

// WithTrace installs a statement trace hook.
func WithTrace(fn TraceFunc) Option {
	return func(s *Store) { s.trace = fn }
}

// WithSystemIdentity sets the poster name used when a thread entry has no
// resolvable staff author. Default "SYSTEM".
func WithSystemIdentity(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.systemIdentity = name
		}
	}
}

// Open creates or opens the record store at the given path and applies
// pragmas and the schema. The returned handle is the only way into the
// store; Open failing is the explicit StoreUnavailable signal, there is
// no deferred or ambient connection state to check later.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &StoreError{Code: ErrCodeUnavailable, Op: "open", Err: err}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StoreError{Code: ErrCodeUnavailable, Op: "connect", Err: err}
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, &StoreError{Code: ErrCodeUnavailable, Op: "pragmas", Err: err}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, &StoreError{Code: ErrCodeUnavailable, Op: "schema", Err: err}
	}

	s := &Store{
		db:             db,
		profile:        ProfileForms,
		systemIdentity: "SYSTEM",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies connectivity. Materialize calls this before beginning a
// transaction so a degraded store fails fast with nothing written.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &StoreError{Code: ErrCodeUnavailable, Op: "ping", Err: err}
	}
	return nil
}

// Profile returns the write contract this handle was opened with.
func (s *Store) Profile() Profile { return s.profile }

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// exec runs one statement inside the materialization transaction,
// feeding the trace hook first.
func (s *Store) exec(ctx context.Context, tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	if s.trace != nil {
		s.trace(query, args...)
	}
	return tx.ExecContext(ctx, query, args...)
}

// queryRow runs one query inside the materialization transaction,
// feeding the trace hook first.
func (s *Store) queryRow(ctx context.Context, tx *sql.Tx, query string, args ...any) *sql.Row {
	if s.trace != nil {
		s.trace(query, args...)
	}
	return tx.QueryRowContext(ctx, query, args...)
}
