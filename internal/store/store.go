// Package store provides SQLite persistence for user accounts and their
// login sessions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"
)

var ErrEmailTaken = errors.New("email already registered")

type Store struct {
	sqldb *sql.DB
	db    *bun.DB
}

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Name         string `bun:"name,notnull"`
	Email        string `bun:"email,notnull"`
	PasswordHash string `bun:"password_hash,notnull"`

	CreatedAt string `bun:"created_at,notnull"`
	UpdatedAt string `bun:"updated_at,notnull"`
}

type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:se"`

	Token     string `bun:"token,pk"`
	UserID    int64  `bun:"user_id,notnull"`
	ExpiresAt string `bun:"expires_at,notnull"`
	CreatedAt string `bun:"created_at,notnull"`
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("DB_PATH is required")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	sqldb, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := sqldb.PingContext(ctx); err != nil {
		if cerr := sqldb.Close(); cerr != nil {
			return nil, fmt.Errorf("ping db: %w; close failed: %w", err, cerr)
		}
		return nil, err
	}

	if err := initSchema(ctx, sqldb); err != nil {
		if cerr := sqldb.Close(); cerr != nil {
			return nil, fmt.Errorf("init schema: %w; close failed: %w", err, cerr)
		}
		return nil, err
	}

	bdb := bun.NewDB(sqldb, sqlitedialect.New())
	return &Store{sqldb: sqldb, db: bdb}, nil
}

func (s *Store) Close() error { return s.sqldb.Close() }

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE(email)
);
CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	expires_at TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// CreateUser inserts a new account. Email collisions report ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (User, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	user := User{
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.NewInsert().
		Model(&user).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.NewSelect().
		Model(&user).
		Where("email = ?", normalizeEmail(email)).
		Limit(1).
		Scan(ctx)
	return user, err
}

func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	var user User
	err := s.db.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	return user, err
}

// CreateSession mints a fresh session token for a user.
func (s *Store) CreateSession(ctx context.Context, userID int64, ttl time.Duration) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl).Format(time.RFC3339),
		CreatedAt: now.Format(time.RFC3339),
	}

	_, err := s.db.NewInsert().
		Model(&sess).
		Exec(ctx)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// UserBySession resolves a session token to its user. Expired or unknown
// tokens report sql.ErrNoRows.
func (s *Store) UserBySession(ctx context.Context, token string) (User, error) {
	var sess Session
	err := s.db.NewSelect().
		Model(&sess).
		Where("token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return User{}, err
	}

	expires, err := time.Parse(time.RFC3339, sess.ExpiresAt)
	if err != nil || time.Now().UTC().After(expires) {
		_ = s.DeleteSession(ctx, token)
		return User{}, sql.ErrNoRows
	}

	return s.GetUser(ctx, sess.UserID)
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.NewDelete().
		Table("sessions").
		Where("token = ?", token).
		Exec(ctx)
	return err
}

// DeleteExpiredSessions removes sessions past their expiry.
func (s *Store) DeleteExpiredSessions(ctx context.Context) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.NewDelete().
		Table("sessions").
		Where("expires_at < ?", now).
		Exec(ctx)
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
