package controllers

import (
	"context"
	"errors"
	"sort"

	"github.com/amaumene/plexdigest/internal/metrics"
	"github.com/amaumene/plexdigest/internal/models"
	"github.com/amaumene/plexdigest/internal/services/tmdb"
	"github.com/amaumene/plexdigest/internal/utils"
	"github.com/sirupsen/logrus"
)

// MetadataLookup resolves media items against the external movie database
type MetadataLookup interface {
	LookupMovie(ctx context.Context, item models.RawMediaItem) (*models.EnrichedRecord, error)
	LookupShow(ctx context.Context, tvdbID string) (*models.EnrichedRecord, error)
}

// ThumbnailSource downloads thumbnails from the media server
type ThumbnailSource interface {
	GetThumbnail(ctx context.Context, path string) ([]byte, error)
}

// EnrichmentController turns raw recently added items into digest entries
type EnrichmentController struct {
	lookup  MetadataLookup
	pacer   *utils.Pacer
	posters *PosterMirror
	thumbs  ThumbnailSource
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewEnrichmentController creates a new enrichment controller.
// posters may be nil when mirroring is disabled.
func NewEnrichmentController(lookup MetadataLookup, pacer *utils.Pacer, posters *PosterMirror, thumbs ThumbnailSource, m *metrics.Metrics, logger *logrus.Logger) *EnrichmentController {
	if pacer == nil {
		pacer = utils.NewPacer(utils.DefaultPaceEvery, utils.DefaultPauseFor)
	}
	pacer.OnPause(m.ObservePause)
	return &EnrichmentController{
		lookup:  lookup,
		pacer:   pacer,
		posters: posters,
		thumbs:  thumbs,
		metrics: m,
		logger:  logger,
	}
}

// showCluster groups the seasons of one show by name
type showCluster struct {
	name    string
	seasons []models.RawMediaItem
}

// Enrich looks up every item and always completes: each movie and each show
// cluster yields exactly one entry, found or not.
func (c *EnrichmentController) Enrich(ctx context.Context, items []models.RawMediaItem, exclusions *utils.Exclusions) *models.Digest {
	var movies []models.RawMediaItem
	var clusters []*showCluster
	byName := make(map[string]*showCluster)

	for _, item := range items {
		if exclusions.IsExcluded(item.LibrarySectionID, item.LibrarySectionTitle) {
			c.logger.WithFields(logrus.Fields{
				"title":   item.Title,
				"library": item.LibrarySectionTitle,
			}).Debug("Skipping item from excluded library")
			continue
		}

		switch item.Kind {
		case models.KindMovie:
			movies = append(movies, item)
		case models.KindSeason:
			// Clustered by show name only, shows sharing a name across libraries merge
			cluster, ok := byName[item.ParentTitle]
			if !ok {
				cluster = &showCluster{name: item.ParentTitle}
				byName[item.ParentTitle] = cluster
				clusters = append(clusters, cluster)
			}
			cluster.seasons = append(cluster.seasons, item)
		default:
			c.logger.WithFields(logrus.Fields{
				"title": item.Title,
				"kind":  item.Kind,
			}).Debug("Skipping unsupported item kind")
		}
	}

	digest := &models.Digest{}

	sort.SliceStable(movies, func(i, j int) bool {
		return movies[i].AddedAt < movies[j].AddedAt
	})
	for i, item := range movies {
		c.pace(ctx, i)
		entry := c.enrichMovie(ctx, item)
		if !entry.IsFound() {
			digest.MoviesNotFound++
		}
		digest.Movies = append(digest.Movies, entry)
		digest.MovieCount++
	}

	for j, cluster := range clusters {
		c.pace(ctx, j)
		entry := c.enrichShow(ctx, cluster)
		if !entry.IsFound() {
			digest.ShowsNotFound++
		}
		digest.Shows = append(digest.Shows, entry)
		digest.ShowCount++
	}

	c.logger.WithFields(logrus.Fields{
		"movies":           digest.MovieCount,
		"movies_not_found": digest.MoviesNotFound,
		"shows":            digest.ShowCount,
		"shows_not_found":  digest.ShowsNotFound,
	}).Info("Enrichment completed")

	return digest
}

func (c *EnrichmentController) pace(ctx context.Context, processed int) {
	if !c.pacer.ShouldPause(processed) {
		return
	}
	c.logger.WithFields(logrus.Fields{
		"processed": processed,
		"pause":     c.pacer.Pause,
	}).Info("Pausing to respect the metadata API rate limit")

	if err := c.pacer.Pace(ctx, processed); err != nil {
		c.logger.WithError(err).Warn("Pause interrupted")
	}
}

func (c *EnrichmentController) enrichMovie(ctx context.Context, item models.RawMediaItem) models.DigestEntry {
	logger := c.logger.WithFields(logrus.Fields{
		"title": item.Title,
		"kind":  models.KindMovie,
	})
	logger.WithField("state", models.StatePending).Debug("Looking up item")

	entry := models.DigestEntry{AddedAt: item.AddedAt}

	record, err := c.lookup.LookupMovie(ctx, item)
	if err != nil {
		reason := c.missReason(logger, string(models.KindMovie), err)
		entry.Missing = &models.NotFoundRecord{
			Kind:   models.KindMovie,
			Title:  item.Title,
			Year:   item.Year,
			Reason: reason,
		}
		logger.WithField("state", models.StateNotFound).Debug("Item not enriched")
		return entry
	}

	c.metrics.ObserveLookup(string(models.KindMovie), metrics.ResultFound)
	logger.WithField("state", models.StateFound).Debug("Item enriched")

	c.resolvePoster(ctx, logger, record, item.Thumb)
	entry.Found = record
	return entry
}

func (c *EnrichmentController) enrichShow(ctx context.Context, cluster *showCluster) models.DigestEntry {
	logger := c.logger.WithFields(logrus.Fields{
		"title": cluster.name,
		"kind":  models.KindShow,
	})
	logger.WithField("state", models.StatePending).Debug("Looking up item")

	seasons := make([]models.RawMediaItem, len(cluster.seasons))
	copy(seasons, cluster.seasons)
	sort.SliceStable(seasons, func(i, j int) bool {
		return seasons[i].SeasonIndex < seasons[j].SeasonIndex
	})

	var summaries []models.SeasonSummary
	var tvdbID, posterKey string
	var addedAt int64
	for _, s := range seasons {
		summaries = append(summaries, models.SeasonSummary{
			Title:        s.Title,
			Index:        s.SeasonIndex,
			EpisodeCount: s.EpisodeCount,
		})
		if tvdbID == "" {
			if id, ok := utils.ExtractTVDBID(s.GuidHints); ok {
				tvdbID = id
			}
		}
		if posterKey == "" {
			posterKey = s.ParentThumb
		}
		if s.AddedAt > addedAt {
			addedAt = s.AddedAt
		}
	}

	entry := models.DigestEntry{AddedAt: addedAt}

	record, err := c.lookupShow(ctx, tvdbID)
	if err != nil {
		reason := c.missReason(logger, string(models.KindShow), err)
		entry.Missing = &models.NotFoundRecord{
			Kind:    models.KindShow,
			Title:   cluster.name,
			Seasons: summaries,
			Reason:  reason,
		}
		logger.WithField("state", models.StateNotFound).Debug("Item not enriched")
		return entry
	}

	c.metrics.ObserveLookup(string(models.KindShow), metrics.ResultFound)
	logger.WithFields(logrus.Fields{
		"state":   models.StateFound,
		"tvdb_id": tvdbID,
	}).Debug("Item enriched")

	record.Seasons = summaries
	c.resolvePoster(ctx, logger, record, posterKey)
	entry.Found = record
	return entry
}

func (c *EnrichmentController) lookupShow(ctx context.Context, tvdbID string) (*models.EnrichedRecord, error) {
	if tvdbID == "" {
		return nil, tmdb.ErrNotFound
	}
	return c.lookup.LookupShow(ctx, tvdbID)
}

// missReason classifies a lookup error and counts it
func (c *EnrichmentController) missReason(logger *logrus.Entry, kind string, err error) models.NotFoundReason {
	if errors.Is(err, tmdb.ErrNotFound) {
		c.metrics.ObserveLookup(kind, metrics.ResultNotFound)
		logger.Info("No match in metadata database")
		return models.ReasonNoMatch
	}
	c.metrics.ObserveLookup(kind, metrics.ResultError)
	logger.WithError(err).Warn("Metadata lookup failed")
	return models.ReasonLookupFailed
}

// resolvePoster swaps the record poster for a mirrored copy when mirroring is on.
// A failed mirror leaves the poster absent so the renderer shows the placeholder.
func (c *EnrichmentController) resolvePoster(ctx context.Context, logger *logrus.Entry, record *models.EnrichedRecord, sourceKey string) {
	if !c.posters.Enabled() {
		return
	}

	result, err := c.posters.MirrorFrom(ctx, sourceKey, func(ctx context.Context) ([]byte, error) {
		return c.thumbs.GetThumbnail(ctx, sourceKey)
	})
	if err != nil {
		logger.WithError(err).Warn("Poster mirror failed, using placeholder")
		record.PosterURL = ""
		record.PosterWidth = 0
		record.PosterHeight = 0
		return
	}

	record.PosterURL = result.URL
	record.PosterWidth = result.Width
	record.PosterHeight = result.Height
	logger.WithFields(logrus.Fields{
		"state":  models.StatePosterResolved,
		"cached": result.Cached,
	}).Debug("Poster resolved")
}
