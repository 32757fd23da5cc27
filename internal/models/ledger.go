package models

import (
	"errors"
	"time"
)

// ErrEntryNotFound is returned when the ledger has no entry for a source key
var ErrEntryNotFound = errors.New("poster ledger entry not found")

// ErrEntryExists is returned when adding a source key that is already recorded
var ErrEntryExists = errors.New("poster ledger entry already exists")

// PosterCacheEntry maps a media server thumbnail path to its mirrored copy
type PosterCacheEntry struct {
	SourceKey   string `boltholdKey:"SourceKey"`
	MirroredURL string
	DeleteToken string
	Width       int
	Height      int
	DateAdded   time.Time
}

// MirrorResult is what callers of the poster mirror need to render an image
type MirrorResult struct {
	URL    string
	Width  int
	Height int
	Cached bool
}

// PosterLedger is the durable, append-only record of mirrored posters
type PosterLedger interface {
	// Get returns the entry for sourceKey or ErrEntryNotFound
	Get(sourceKey string) (*PosterCacheEntry, error)
	// Add appends an entry; ErrEntryExists if the key is already recorded
	Add(entry *PosterCacheEntry) error
	Close() error
}
