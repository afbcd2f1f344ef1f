// Package tokenstore persists the session's bearer token.
//
// The token is kept under common.TokenStorageKey and survives restarts.
// Only the session store writes it; the HTTP transport reads it at request
// time through the Token method.
package tokenstore

import (
	"context"
	"database/sql"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/certportal/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/certportal/internal/common"
	"github.com/dmitrijs2005/certportal/internal/dbx"
)

// Store is durable storage for a single opaque token. Load returns an empty
// string when nothing is stored.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// SQLiteStore keeps the token in the local metadata table.
type SQLiteStore struct {
	db   *sql.DB
	repo metadata.Factory
	now  func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, repo: metadata.SQLite, now: time.Now}
}

func (s *SQLiteStore) Load(ctx context.Context) (string, error) {
	v, err := s.repo(s.db).Get(ctx, common.TokenStorageKey)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// Token is Load under the name the HTTP transport expects.
func (s *SQLiteStore) Token(ctx context.Context) (string, error) {
	return s.Load(ctx)
}

// Save writes the token and its timestamp in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, token string) error {
	savedAt := strconv.FormatInt(s.now().Unix(), 10)

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repo(tx).Put(ctx,
			metadata.Entry{Key: common.TokenStorageKey, Value: []byte(token)},
			metadata.Entry{Key: common.TokenSavedAtKey, Value: []byte(savedAt)},
		)
	})
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.repo(s.db).Delete(ctx, common.TokenStorageKey, common.TokenSavedAtKey)
}

// SavedAt reports when the token was last written. ok is false when no
// token timestamp is stored.
func (s *SQLiteStore) SavedAt(ctx context.Context) (t time.Time, ok bool, err error) {
	v, err := s.repo(s.db).Get(ctx, common.TokenSavedAtKey)
	if err != nil || v == nil {
		return time.Time{}, false, err
	}
	sec, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return time.Time{}, false, nil
	}
	return time.Unix(sec, 0), true, nil
}

// MemoryStore keeps the token in memory. It is used by tests and by
// sessions that must not touch the disk.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) Load(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *MemoryStore) Token(ctx context.Context) (string, error) {
	return m.Load(ctx)
}

func (m *MemoryStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
