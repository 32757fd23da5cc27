package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store holding the poster ledger
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Get retrieves a poster entry by source key
func (db *Database) Get(sourceKey string) (*PosterCacheEntry, error) {
	var entry PosterCacheEntry
	err := db.store.Get(sourceKey, &entry)
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Add inserts a poster entry keyed by its source key
func (db *Database) Add(entry *PosterCacheEntry) error {
	err := db.store.Insert(entry.SourceKey, entry)
	if errors.Is(err, bolthold.ErrKeyExists) {
		return ErrEntryExists
	}
	return err
}

// Entries retrieves all poster entries
func (db *Database) Entries() ([]*PosterCacheEntry, error) {
	var entries []*PosterCacheEntry
	err := db.store.Find(&entries, nil)
	return entries, err
}
