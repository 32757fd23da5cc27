package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/amaumene/plexdigest/internal/models"
	"github.com/amaumene/plexdigest/internal/services/imgur"
	"github.com/amaumene/plexdigest/internal/services/plex"
	"github.com/amaumene/plexdigest/internal/services/tmdb"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeLookup struct {
	mu         sync.Mutex
	movies     map[string]*models.EnrichedRecord // by title
	shows      map[string]*models.EnrichedRecord // by tvdb id
	errs       map[string]error
	movieCalls []string
	showCalls  []string
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		movies: make(map[string]*models.EnrichedRecord),
		shows:  make(map[string]*models.EnrichedRecord),
		errs:   make(map[string]error),
	}
}

func (f *fakeLookup) LookupMovie(ctx context.Context, item models.RawMediaItem) (*models.EnrichedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movieCalls = append(f.movieCalls, item.Title)

	if err, ok := f.errs[item.Title]; ok {
		return nil, err
	}
	if r, ok := f.movies[item.Title]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, fmt.Errorf("lookup %q: %w", item.Title, tmdb.ErrNotFound)
}

func (f *fakeLookup) LookupShow(ctx context.Context, tvdbID string) (*models.EnrichedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.showCalls = append(f.showCalls, tvdbID)

	if err, ok := f.errs[tvdbID]; ok {
		return nil, err
	}
	if r, ok := f.shows[tvdbID]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, tmdb.ErrNotFound
}

type fakeHost struct {
	mu      sync.Mutex
	uploads int
	err     error
}

func (h *fakeHost) Upload(ctx context.Context, image []byte) (*imgur.UploadResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	h.uploads++
	return &imgur.UploadResult{
		Link:       fmt.Sprintf("https://i.imgur.com/%d.png", h.uploads),
		DeleteHash: fmt.Sprintf("del%d", h.uploads),
		Width:      300,
		Height:     450,
	}, nil
}

type fakeFeed struct {
	version    string
	sections   []plex.LibrarySection
	items      []models.RawMediaItem
	thumbs     map[string][]byte
	err        error
	thumbCalls int
	since      time.Time
}

func (f *fakeFeed) GetServerVersion(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.version, nil
}

func (f *fakeFeed) GetLibrarySections(ctx context.Context) ([]plex.LibrarySection, error) {
	return f.sections, nil
}

func (f *fakeFeed) ListRecentlyAdded(ctx context.Context, since time.Time) ([]models.RawMediaItem, error) {
	f.since = since
	return f.items, nil
}

func (f *fakeFeed) GetThumbnail(ctx context.Context, path string) ([]byte, error) {
	f.thumbCalls++
	if data, ok := f.thumbs[path]; ok {
		return data, nil
	}
	return nil, errors.New("thumbnail not found")
}

type fakeSender struct {
	sent    int
	subject string
	html    []byte
	err     error
}

func (s *fakeSender) Send(ctx context.Context, subject string, html []byte) error {
	if s.err != nil {
		return s.err
	}
	s.sent++
	s.subject = subject
	s.html = html
	return nil
}

func movieItem(title string, year int, addedAt int64) models.RawMediaItem {
	return models.RawMediaItem{
		Kind:                models.KindMovie,
		RatingKey:           title,
		Title:               title,
		Year:                models.IntPtr(year),
		AddedAt:             addedAt,
		LibrarySectionID:    "1",
		LibrarySectionTitle: "Movies",
		Thumb:               "/library/metadata/" + title + "/thumb",
	}
}

func seasonItem(show string, index, episodes int, hints string) models.RawMediaItem {
	return models.RawMediaItem{
		Kind:                models.KindSeason,
		Title:               fmt.Sprintf("Season %d", index),
		GuidHints:           hints,
		LibrarySectionID:    "2",
		LibrarySectionTitle: "TV Shows",
		ParentTitle:         show,
		ParentThumb:         "/library/metadata/" + show + "/thumb",
		SeasonIndex:         index,
		EpisodeCount:        episodes,
	}
}
