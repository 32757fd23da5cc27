package models

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseLedger(t *testing.T) {
	db, err := NewDatabase(filepath.Join(t.TempDir(), "posters.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get("/thumb/1")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	entry := &PosterCacheEntry{
		SourceKey:   "/thumb/1",
		MirroredURL: "https://i.imgur.com/1.jpg",
		DeleteToken: "tok",
		Width:       300,
		Height:      450,
		DateAdded:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, db.Add(entry))

	got, err := db.Get("/thumb/1")
	require.NoError(t, err)
	assert.Equal(t, entry.MirroredURL, got.MirroredURL)
	assert.Equal(t, 450, got.Height)
	assert.True(t, entry.DateAdded.Equal(got.DateAdded))

	assert.ErrorIs(t, db.Add(entry), ErrEntryExists)

	entries, err := db.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
