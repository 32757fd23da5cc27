package main

import (
	"fmt"

	"github.com/amaumene/plexdigest/internal/config"
	"github.com/amaumene/plexdigest/internal/controllers"
	"github.com/amaumene/plexdigest/internal/metrics"
	"github.com/amaumene/plexdigest/internal/models"
	"github.com/amaumene/plexdigest/internal/services/imgur"
	"github.com/amaumene/plexdigest/internal/services/mailer"
	"github.com/amaumene/plexdigest/internal/services/plex"
	"github.com/amaumene/plexdigest/internal/services/tmdb"
	"github.com/amaumene/plexdigest/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// app holds the wired components shared by the commands
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	metrics *metrics.Metrics
	ledger  models.PosterLedger
	digest  *controllers.DigestController
}

// newApp loads configuration and wires every component.
// withMail requires valid SMTP settings.
func newApp(withMail bool) (*app, error) {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger and metrics
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFile)
	logger.WithField("version", version).Info("Starting plexdigest")
	m := metrics.New()

	a := &app{cfg: cfg, logger: logger, metrics: m}

	// 3. Initialize services
	plexClient, err := plex.NewClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Plex client: %w", err)
	}

	tmdbClient, err := tmdb.NewClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize TMDB client: %w", err)
	}

	var sender controllers.DigestSender
	if withMail {
		mail, err := mailer.NewMailer(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mailer: %w", err)
		}
		sender = mail
	}

	// 4. Poster mirroring
	var posters *controllers.PosterMirror
	if cfg.PosterMirror {
		imgurClient, err := imgur.NewClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Imgur client: %w", err)
		}
		ledger, err := openLedger(cfg)
		if err != nil {
			return nil, err
		}
		a.ledger = ledger
		posters = controllers.NewPosterMirror(ledger, imgurClient, m, logger)
		logger.WithField("backend", cfg.LedgerBackend).Info("Poster mirroring enabled")
	}

	// 5. Excluded libraries
	fs := afero.NewOsFs()
	exclusions, err := utils.LoadExclusions(fs, cfg.ExclusionsFile, cfg.ExcludedLibraries...)
	if err != nil {
		logger.WithError(err).Warn("Failed to load excluded libraries file, using environment only")
		exclusions = utils.NewExclusions(cfg.ExcludedLibraries...)
	}
	logger.WithField("count", exclusions.Len()).Debug("Excluded libraries loaded")

	// 6. Initialize controllers
	pacer := utils.NewPacer(cfg.RateLimitEvery, cfg.RateLimitPause)
	enrichment := controllers.NewEnrichmentController(tmdbClient, pacer, posters, plexClient, m, logger)
	a.digest = controllers.NewDigestController(cfg, plexClient, enrichment, sender, exclusions, fs, m, logger)

	return a, nil
}

func openLedger(cfg *config.Config) (models.PosterLedger, error) {
	switch cfg.LedgerBackend {
	case config.LedgerBackendBolt:
		db, err := models.NewDatabase(cfg.LedgerBoltFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open poster ledger: %w", err)
		}
		return db, nil
	default:
		ledger, err := models.NewCSVLedger(afero.NewOsFs(), cfg.LedgerCSVFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open poster ledger: %w", err)
		}
		return ledger, nil
	}
}

func (a *app) close() {
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close poster ledger")
		}
	}
}
