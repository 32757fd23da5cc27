package tmdb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/amaumene/plexdigest/internal/models"
	"github.com/amaumene/plexdigest/internal/utils"
	"github.com/sirupsen/logrus"
)

// LookupMovie resolves a movie item to a normalized record.
// The IMDB id from the guid hints is tried first; a fuzzy title search is the fallback.
// Returns ErrNotFound when nothing matches.
func (c *Client) LookupMovie(ctx context.Context, item models.RawMediaItem) (*models.EnrichedRecord, error) {
	logger := c.logger.WithFields(logrus.Fields{
		"title": item.Title,
		"kind":  item.Kind,
	})

	movieID := 0
	imdbID, hasIMDB := utils.ExtractIMDBID(item.GuidHints)
	if hasIMDB {
		found, err := c.FindByExternalID(ctx, imdbID, SourceIMDB)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if err == nil && len(found.MovieResults) > 0 {
			movieID = found.MovieResults[0].ID
		}
	}

	if movieID == 0 {
		logger.WithField("imdb_id", imdbID).Debug("No id match, falling back to title search")
		result, err := c.searchMovie(ctx, item.Title, item.Year)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, ErrNotFound
		}
		movieID = result.ID
	}

	details, err := c.MovieDetails(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if details.ID == 0 || details.Title == "" {
		return nil, ErrNotFound
	}

	record := c.movieRecord(item, details)
	if record.IMDBID == "" {
		record.IMDBID = imdbID
	}

	logger.WithFields(logrus.Fields{
		"tmdb_id": record.TMDBID,
		"imdb_id": record.IMDBID,
	}).Debug("Movie resolved")

	return record, nil
}

// searchMovie searches by title with the item year, then one year earlier,
// since release dates often differ by region. Returns nil when no candidate is close enough.
func (c *Client) searchMovie(ctx context.Context, title string, year *int) (*SearchResult, error) {
	if strings.TrimSpace(title) == "" {
		return nil, nil
	}

	years := []int{0}
	if year != nil && *year > 0 {
		years = []int{*year, *year - 1}
	}

	for _, y := range years {
		results, err := c.SearchMovies(ctx, title, y)
		if err != nil {
			return nil, err
		}
		if match, score, ok := bestMatch(title, results); ok {
			c.logger.WithFields(logrus.Fields{
				"query": title,
				"match": match.Title,
				"year":  y,
				"score": fmt.Sprintf("%.2f", score),
			}).Debug("Title search matched")
			return &match, nil
		}
	}
	return nil, nil
}

func (c *Client) movieRecord(item models.RawMediaItem, details *MovieDetails) *models.EnrichedRecord {
	record := &models.EnrichedRecord{
		Kind:          models.KindMovie,
		Title:         details.Title,
		IMDBID:        details.IMDBID,
		TMDBID:        details.ID,
		PosterURL:     c.PosterURL(details.PosterPath),
		Genres:        genreNames(details.Genres),
		ContentRating: item.ContentRating,
		Overview:      item.Summary,
		Cast:          item.Cast,
		VoteAverage:   voteAverage(details.VoteAverage, details.VoteCount),
	}

	switch {
	case item.Year != nil && *item.Year > 0:
		record.DisplayYear = strconv.Itoa(*item.Year)
	case yearOf(details.ReleaseDate) > 0:
		record.DisplayYear = strconv.Itoa(yearOf(details.ReleaseDate))
	}

	if record.Overview == "" {
		record.Overview = details.Overview
	}

	if details.Runtime > 0 {
		record.RuntimeMinutes = models.IntPtr(details.Runtime)
	} else if item.DurationMinutes > 0 {
		record.RuntimeMinutes = models.IntPtr(item.DurationMinutes)
	}

	return record
}

// LookupShow resolves a show by its TVDB id. Content rating and IMDB id
// are best effort and leave their fields empty on failure.
func (c *Client) LookupShow(ctx context.Context, tvdbID string) (*models.EnrichedRecord, error) {
	if tvdbID == "" {
		return nil, ErrNotFound
	}

	found, err := c.FindByExternalID(ctx, tvdbID, SourceTVDB)
	if err != nil {
		return nil, err
	}
	if len(found.TVResults) == 0 {
		return nil, ErrNotFound
	}

	details, err := c.TVDetails(ctx, found.TVResults[0].ID)
	if err != nil {
		return nil, err
	}
	if details.ID == 0 || details.Name == "" {
		return nil, ErrNotFound
	}

	record := &models.EnrichedRecord{
		Kind:        models.KindShow,
		Title:       details.Name,
		DisplayYear: models.YearRange(yearOf(details.FirstAirDate), yearOf(details.LastAirDate)),
		TMDBID:      details.ID,
		PosterURL:   c.PosterURL(details.PosterPath),
		Genres:      genreNames(details.Genres),
		Overview:    details.Overview,
		VoteAverage: voteAverage(details.VoteAverage, details.VoteCount),
	}

	logger := c.logger.WithFields(logrus.Fields{
		"show":    details.Name,
		"tmdb_id": details.ID,
	})

	if ratings, err := c.TVContentRatings(ctx, details.ID); err != nil {
		logger.WithError(err).Warn("Failed to fetch content rating")
	} else {
		record.ContentRating = usRating(ratings)
	}

	if ids, err := c.TVExternalIDs(ctx, details.ID); err != nil {
		logger.WithError(err).Warn("Failed to fetch external ids")
	} else {
		record.IMDBID = ids.IMDBID
	}

	return record, nil
}

func usRating(ratings []ContentRating) string {
	for _, r := range ratings {
		if r.ISO31661 == "US" {
			return r.Rating
		}
	}
	return ""
}

func genreNames(genres []Genre) []string {
	if len(genres) == 0 {
		return nil
	}
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return names
}

// voteAverage is nil when nobody voted
func voteAverage(avg float64, count int) *float64 {
	if count == 0 && avg == 0 {
		return nil
	}
	v := models.RoundVote(avg)
	return &v
}

// yearOf parses the year of a "YYYY-MM-DD" date, 0 when unknown
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
