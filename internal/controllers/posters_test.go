package controllers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/amaumene/plexdigest/internal/metrics"
	"github.com/amaumene/plexdigest/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCSVLedger(t *testing.T, fs afero.Fs) *models.CSVLedger {
	t.Helper()
	ledger, err := models.NewCSVLedger(fs, "/config/posters.csv")
	require.NoError(t, err)
	return ledger
}

func TestMirrorUploadsOncePerSourceKey(t *testing.T) {
	fs := afero.NewMemMapFs()
	host := &fakeHost{}
	m := metrics.New()
	mirror := NewPosterMirror(newCSVLedger(t, fs), host, m, quietLogger())

	first, err := mirror.Mirror(context.Background(), "/library/metadata/1/thumb", []byte("img"))
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "https://i.imgur.com/1.png", first.URL)
	assert.Equal(t, 300, first.Width)
	assert.Equal(t, 450, first.Height)

	second, err := mirror.Mirror(context.Background(), "/library/metadata/1/thumb", []byte("img"))
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.URL, second.URL)
	assert.Equal(t, 1, host.uploads)

	// A fresh mirror over the same ledger file still hits the cache
	reopened := NewPosterMirror(newCSVLedger(t, fs), host, m, quietLogger())
	third, err := reopened.Mirror(context.Background(), "/library/metadata/1/thumb", []byte("img"))
	require.NoError(t, err)
	assert.True(t, third.Cached)
	assert.Equal(t, 1, host.uploads)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PosterMirrors.WithLabelValues(metrics.MirrorUploaded)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PosterMirrors.WithLabelValues(metrics.MirrorCached)))
}

func TestMirrorConcurrentCallsUploadOnce(t *testing.T) {
	fs := afero.NewMemMapFs()
	host := &fakeHost{}
	mirror := NewPosterMirror(newCSVLedger(t, fs), host, nil, quietLogger())

	const workers = 16
	urls := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := mirror.Mirror(context.Background(), "/library/metadata/7/thumb", []byte("img"))
			errs[i] = err
			if err == nil {
				urls[i] = result.URL
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "https://i.imgur.com/1.png", urls[i])
	}
	assert.Equal(t, 1, host.uploads)

	entry, err := newCSVLedger(t, fs).Get("/library/metadata/7/thumb")
	require.NoError(t, err)
	assert.Equal(t, "https://i.imgur.com/1.png", entry.MirroredURL)
}

func TestMirrorFromSkipsFetchOnHit(t *testing.T) {
	host := &fakeHost{}
	mirror := NewPosterMirror(newCSVLedger(t, afero.NewMemMapFs()), host, nil, quietLogger())

	fetches := 0
	fetch := func(ctx context.Context) ([]byte, error) {
		fetches++
		return []byte("img"), nil
	}

	for i := 0; i < 3; i++ {
		_, err := mirror.MirrorFrom(context.Background(), "/thumb/9", fetch)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fetches)
	assert.Equal(t, 1, host.uploads)
}

func TestMirrorFailures(t *testing.T) {
	ledger := newCSVLedger(t, afero.NewMemMapFs())
	host := &fakeHost{err: errors.New("quota exceeded")}
	mirror := NewPosterMirror(ledger, host, nil, quietLogger())

	_, err := mirror.Mirror(context.Background(), "/thumb/1", []byte("img"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMirrorDisabled))

	// Nothing recorded for a failed upload
	_, err = ledger.Get("/thumb/1")
	assert.True(t, errors.Is(err, models.ErrEntryNotFound))

	_, err = mirror.MirrorFrom(context.Background(), "/thumb/2", func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("plex down")
	})
	assert.Error(t, err)

	_, err = mirror.Mirror(context.Background(), "", []byte("img"))
	assert.Error(t, err)
}

func TestMirrorDisabled(t *testing.T) {
	var nilMirror *PosterMirror
	assert.False(t, nilMirror.Enabled())

	_, err := nilMirror.Mirror(context.Background(), "/thumb/1", nil)
	assert.True(t, errors.Is(err, ErrMirrorDisabled))

	mirror := NewPosterMirror(newCSVLedger(t, afero.NewMemMapFs()), nil, nil, quietLogger())
	_, err = mirror.Mirror(context.Background(), "/thumb/1", nil)
	assert.True(t, errors.Is(err, ErrMirrorDisabled))
}

func TestMirrorWithBoltLedger(t *testing.T) {
	db, err := models.NewDatabase(t.TempDir() + "/posters.db")
	require.NoError(t, err)
	defer db.Close()

	host := &fakeHost{}
	mirror := NewPosterMirror(db, host, nil, quietLogger())

	for i := 0; i < 2; i++ {
		result, err := mirror.Mirror(context.Background(), "/thumb/7", []byte("img"))
		require.NoError(t, err)
		assert.Equal(t, "https://i.imgur.com/1.png", result.URL)
	}
	assert.Equal(t, 1, host.uploads)
}
