package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveLookup("movie", ResultFound)
	m.ObserveLookup("movie", ResultFound)
	m.ObserveLookup("show", ResultNotFound)
	m.ObserveMirror(MirrorCached)
	m.ObservePause()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Lookups.WithLabelValues("movie", ResultFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues("show", ResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PosterMirrors.WithLabelValues(MirrorCached)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Pauses))
}

func TestObserveRun(t *testing.T) {
	m := New()
	finished := time.Unix(1700000000, 0)

	m.ObserveRun(finished, 3*time.Second, nil, map[ItemKey]int{{Kind: "movie", Status: "found"}: 4})
	m.ObserveRun(finished, time.Second, errors.New("feed down"), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("failure")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.LastRunTimestamp))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LastRunDuration))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.LastRunItems.WithLabelValues("movie", "found")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveLookup("movie", ResultFound)
	m.ObservePause()
	assert.NoError(t, m.WriteTextfile("/nonexistent/path"))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObservePause()

	path := filepath.Join(t.TempDir(), "plexdigest.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "plexdigest_rate_limit_pauses_total 1")
}
