package controllers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/amaumene/plexdigest/internal/config"
	"github.com/amaumene/plexdigest/internal/metrics"
	"github.com/amaumene/plexdigest/internal/models"
	"github.com/amaumene/plexdigest/internal/report"
	"github.com/amaumene/plexdigest/internal/services/plex"
	"github.com/amaumene/plexdigest/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ErrRunInProgress is returned when a run is requested while another one is active
var ErrRunInProgress = errors.New("a digest run is already in progress")

// MediaFeed is the media server side of a run
type MediaFeed interface {
	ThumbnailSource
	GetServerVersion(ctx context.Context) (string, error)
	GetLibrarySections(ctx context.Context) ([]plex.LibrarySection, error)
	ListRecentlyAdded(ctx context.Context, since time.Time) ([]models.RawMediaItem, error)
}

// DigestSender delivers a rendered digest
type DigestSender interface {
	Send(ctx context.Context, subject string, html []byte) error
}

// RunOptions tweaks a single run
type RunOptions struct {
	DryRun     bool   // Render only, never send
	OutputPath string // Where a dry run writes the HTML
	Days       int    // Overrides DIGEST_DAYS when positive
}

// RunSummary describes the last finished run
type RunSummary struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	DryRun         bool      `json:"dry_run"`
	Sent           bool      `json:"sent"`
	MovieCount     int       `json:"movie_count"`
	ShowCount      int       `json:"show_count"`
	MoviesNotFound int       `json:"movies_not_found"`
	ShowsNotFound  int       `json:"shows_not_found"`
	Error          string    `json:"error,omitempty"`
}

// DigestController runs the feed, enrichment, render and delivery steps
type DigestController struct {
	cfg        *config.Config
	feed       MediaFeed
	enrichment *EnrichmentController
	sender     DigestSender
	exclusions *utils.Exclusions
	fs         afero.Fs
	metrics    *metrics.Metrics
	logger     *logrus.Logger
	now        func() time.Time

	mu      sync.Mutex
	running bool
	last    *RunSummary
}

// NewDigestController creates a new digest controller. sender may be nil for dry runs only.
func NewDigestController(cfg *config.Config, feed MediaFeed, enrichment *EnrichmentController, sender DigestSender, exclusions *utils.Exclusions, fs afero.Fs, m *metrics.Metrics, logger *logrus.Logger) *DigestController {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &DigestController{
		cfg:        cfg,
		feed:       feed,
		enrichment: enrichment,
		sender:     sender,
		exclusions: exclusions,
		fs:         fs,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// LastRun returns a copy of the last run summary, nil before the first run
func (c *DigestController) LastRun() *RunSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last == nil {
		return nil
	}
	summary := *c.last
	return &summary
}

// Running reports whether a run is active
func (c *DigestController) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Run performs one full digest run. Feed and delivery failures abort the run
// before anything is sent.
func (c *DigestController) Run(ctx context.Context, opts RunOptions) (*models.Digest, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil, ErrRunInProgress
	}
	c.running = true
	c.mu.Unlock()

	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: c.now(),
		DryRun:    opts.DryRun,
	}
	logger := c.logger.WithField("run_id", summary.RunID)

	digest, err := c.run(ctx, logger, summary, opts)

	summary.FinishedAt = c.now()
	if err != nil {
		summary.Error = err.Error()
		logger.WithError(err).Error("Digest run failed")
	} else {
		logger.WithField("duration", summary.FinishedAt.Sub(summary.StartedAt).String()).Info("Digest run completed")
	}
	c.record(logger, summary, err)

	return digest, err
}

func (c *DigestController) run(ctx context.Context, logger *logrus.Entry, summary *RunSummary, opts RunOptions) (*models.Digest, error) {
	if !opts.DryRun && c.sender == nil {
		return nil, fmt.Errorf("no mail sender configured")
	}

	days := c.cfg.DigestDays
	if opts.Days > 0 {
		days = opts.Days
	}
	since := summary.StartedAt.Add(-time.Duration(days) * 24 * time.Hour)

	logger.WithFields(logrus.Fields{
		"since":   since.Format(time.RFC3339),
		"dry_run": opts.DryRun,
	}).Info("Starting digest run")

	version, err := c.feed.GetServerVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reach media server: %w", err)
	}

	sections, err := c.feed.GetLibrarySections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list libraries: %w", err)
	}
	for _, section := range sections {
		if c.exclusions.IsExcluded(section.Key, section.Title) {
			logger.WithFields(logrus.Fields{
				"library": section.Title,
				"id":      section.Key,
			}).Info("Library excluded from digest")
		}
	}

	items, err := c.feed.ListRecentlyAdded(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list recently added items: %w", err)
	}

	digest := c.enrichment.Enrich(ctx, items, c.exclusions)
	digest.RunID = summary.RunID
	digest.Since = since
	digest.GeneratedAt = c.now()
	digest.ServerVersion = version

	summary.MovieCount = digest.MovieCount
	summary.ShowCount = digest.ShowCount
	summary.MoviesNotFound = digest.MoviesNotFound
	summary.ShowsNotFound = digest.ShowsNotFound

	html, err := report.Render(digest, report.Options{
		Title:                c.cfg.MailSubject,
		PlaceholderPosterURL: c.cfg.PlaceholderPosterURL,
	})
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		if opts.OutputPath != "" {
			if err := afero.WriteFile(c.fs, opts.OutputPath, html, 0644); err != nil {
				return nil, fmt.Errorf("failed to write digest: %w", err)
			}
			logger.WithField("path", opts.OutputPath).Info("Digest written")
		} else {
			logger.Info("Dry run, digest not sent")
		}
		return digest, nil
	}

	if digest.IsEmpty() {
		logger.Info("Nothing added in the window, no mail sent")
		return digest, nil
	}

	if err := c.sender.Send(ctx, c.cfg.MailSubject, html); err != nil {
		return nil, fmt.Errorf("failed to send digest: %w", err)
	}
	summary.Sent = true

	return digest, nil
}

func (c *DigestController) record(logger *logrus.Entry, summary *RunSummary, err error) {
	c.mu.Lock()
	c.running = false
	c.last = summary
	c.mu.Unlock()

	c.metrics.ObserveRun(summary.FinishedAt, summary.FinishedAt.Sub(summary.StartedAt), err, map[metrics.ItemKey]int{
		{Kind: "movie", Status: metrics.ResultFound}:    summary.MovieCount - summary.MoviesNotFound,
		{Kind: "movie", Status: metrics.ResultNotFound}: summary.MoviesNotFound,
		{Kind: "show", Status: metrics.ResultFound}:     summary.ShowCount - summary.ShowsNotFound,
		{Kind: "show", Status: metrics.ResultNotFound}:  summary.ShowsNotFound,
	})

	if err := c.metrics.WriteTextfile(c.cfg.MetricsTextfile); err != nil {
		logger.WithError(err).Warn("Failed to write metrics textfile")
	}
}
