package controllers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/amaumene/plexdigest/internal/metrics"
	"github.com/amaumene/plexdigest/internal/models"
	"github.com/amaumene/plexdigest/internal/services/imgur"
	"github.com/sirupsen/logrus"
)

// ErrMirrorDisabled is returned when no image host is configured
var ErrMirrorDisabled = errors.New("poster mirroring is disabled")

// ImageHost uploads image bytes and returns the hosted copy
type ImageHost interface {
	Upload(ctx context.Context, image []byte) (*imgur.UploadResult, error)
}

// FetchFunc loads the image bytes of a source key on a ledger miss
type FetchFunc func(ctx context.Context) ([]byte, error)

// PosterMirror copies media server thumbnails to a public image host,
// remembering every upload in the ledger so each source key is uploaded once.
type PosterMirror struct {
	mu      sync.Mutex
	ledger  models.PosterLedger
	host    ImageHost
	metrics *metrics.Metrics
	logger  *logrus.Logger
	now     func() time.Time
}

// NewPosterMirror creates a poster mirror. A nil host disables mirroring.
func NewPosterMirror(ledger models.PosterLedger, host ImageHost, m *metrics.Metrics, logger *logrus.Logger) *PosterMirror {
	return &PosterMirror{
		ledger:  ledger,
		host:    host,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Enabled reports whether posters are mirrored
func (p *PosterMirror) Enabled() bool {
	return p != nil && p.host != nil && p.ledger != nil
}

// Mirror returns the hosted copy of image, uploading it only when sourceKey is not in the ledger
func (p *PosterMirror) Mirror(ctx context.Context, sourceKey string, image []byte) (*models.MirrorResult, error) {
	return p.MirrorFrom(ctx, sourceKey, func(context.Context) ([]byte, error) {
		return image, nil
	})
}

// MirrorFrom is Mirror with the image loaded lazily, so cache hits cost no download
func (p *PosterMirror) MirrorFrom(ctx context.Context, sourceKey string, fetch FetchFunc) (*models.MirrorResult, error) {
	if !p.Enabled() {
		return nil, ErrMirrorDisabled
	}
	if sourceKey == "" {
		return nil, fmt.Errorf("empty poster source key")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	logger := p.logger.WithField("source", sourceKey)

	entry, err := p.ledger.Get(sourceKey)
	if err == nil {
		logger.Debug("Poster found in ledger")
		p.metrics.ObserveMirror(metrics.MirrorCached)
		return &models.MirrorResult{
			URL:    entry.MirroredURL,
			Width:  entry.Width,
			Height: entry.Height,
			Cached: true,
		}, nil
	}
	if !errors.Is(err, models.ErrEntryNotFound) {
		p.metrics.ObserveMirror(metrics.MirrorFailed)
		return nil, fmt.Errorf("failed to read poster ledger: %w", err)
	}

	image, err := fetch(ctx)
	if err != nil {
		p.metrics.ObserveMirror(metrics.MirrorFailed)
		return nil, fmt.Errorf("failed to fetch poster: %w", err)
	}

	uploaded, err := p.host.Upload(ctx, image)
	if err != nil {
		p.metrics.ObserveMirror(metrics.MirrorFailed)
		return nil, fmt.Errorf("failed to upload poster: %w", err)
	}

	entry = &models.PosterCacheEntry{
		SourceKey:   sourceKey,
		MirroredURL: uploaded.Link,
		DeleteToken: uploaded.DeleteHash,
		Width:       uploaded.Width,
		Height:      uploaded.Height,
		DateAdded:   p.now().UTC(),
	}
	if err := p.ledger.Add(entry); err != nil {
		p.metrics.ObserveMirror(metrics.MirrorFailed)
		return nil, fmt.Errorf("failed to record poster in ledger: %w", err)
	}

	logger.WithField("url", uploaded.Link).Info("Poster mirrored")
	p.metrics.ObserveMirror(metrics.MirrorUploaded)

	return &models.MirrorResult{
		URL:    entry.MirroredURL,
		Width:  entry.Width,
		Height: entry.Height,
	}, nil
}
