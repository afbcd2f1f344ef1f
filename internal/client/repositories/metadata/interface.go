// Package metadata stores small key/value records in the local database.
package metadata

import (
	"context"

	"github.com/dmitrijs2005/certportal/internal/dbx"
)

// Entry is one key/value record.
type Entry struct {
	Key   string
	Value []byte
}

// Repository is a key/value table. Get returns (nil, nil) for a missing key.
// Put upserts every entry; Delete removes every key and ignores absent ones.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, entries ...Entry) error
	Delete(ctx context.Context, keys ...string) error
}

// Factory opens a Repository on a database handle or a transaction.
type Factory func(db dbx.DBTX) Repository

// SQLite is the Factory for the sqlite-backed repository.
func SQLite(db dbx.DBTX) Repository {
	return NewSQLiteRepository(db)
}
