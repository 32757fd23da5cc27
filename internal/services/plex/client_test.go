package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/amaumene/plexdigest/internal/config"
	"github.com/amaumene/plexdigest/internal/models"
	"github.com/amaumene/plexdigest/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recentlyAddedJSON = `{
  "MediaContainer": {
    "size": 4,
    "Metadata": [
      {
        "ratingKey": "101",
        "type": "movie",
        "title": "The Matrix",
        "year": 1999,
        "guid": "plex://movie/5d776825880197001ec967c6",
        "Guid": [{"id": "imdb://tt0133093"}, {"id": "tmdb://603"}],
        "addedAt": 1700000500,
        "librarySectionID": 1,
        "librarySectionTitle": "Movies",
        "thumb": "/library/metadata/101/thumb/1",
        "contentRating": "R",
        "summary": "A hacker learns the truth.",
        "duration": 8160000,
        "Role": [{"tag": "Keanu Reeves"}, {"tag": "Carrie-Anne Moss"}]
      },
      {
        "ratingKey": "202",
        "parentRatingKey": "200",
        "type": "season",
        "title": "Season 2",
        "guid": "plex://season/602e6a0b",
        "parentGuid": "plex://show/5d9c086c",
        "Guid": [{"id": "tvdb://30272"}],
        "addedAt": 1700000400,
        "librarySectionID": "2",
        "librarySectionTitle": "TV Shows",
        "parentTitle": "Breaking Bad",
        "parentThumb": "/library/metadata/200/thumb/1",
        "index": 2,
        "leafCount": 13
      },
      {
        "ratingKey": "203",
        "parentRatingKey": "200",
        "type": "season",
        "title": "Season 1",
        "parentGuid": "plex://show/5d9c086c",
        "addedAt": 1700000300,
        "librarySectionID": 2,
        "parentTitle": "Breaking Bad",
        "index": 1,
        "leafCount": 1
      },
      {
        "ratingKey": "301",
        "type": "movie",
        "title": "Too Old",
        "addedAt": 1600000000,
        "librarySectionID": 1
      },
      {
        "ratingKey": "401",
        "type": "album",
        "title": "Some Album",
        "addedAt": 1700000600
      }
    ]
  }
}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client, err := NewClient(&config.Config{PlexURL: srv.URL, PlexToken: "secret"}, logger)
	require.NoError(t, err)
	return client
}

func TestListRecentlyAdded(t *testing.T) {
	showFetches := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/library/recentlyAdded", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Plex-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = io.WriteString(w, recentlyAddedJSON)
	})
	mux.HandleFunc("/library/metadata/200", func(w http.ResponseWriter, r *http.Request) {
		showFetches++
		_, _ = io.WriteString(w, `{"MediaContainer":{"Metadata":[{"ratingKey":"200","type":"show","guid":"plex://show/5d9c086c","Guid":[{"id":"imdb://tt0903747"},{"id":"tvdb://81189"}]}]}}`)
	})
	client := newTestClient(t, mux)

	items, err := client.ListRecentlyAdded(context.Background(), time.Unix(1700000000, 0))
	require.NoError(t, err)
	require.Len(t, items, 3)

	movie := items[0]
	assert.Equal(t, models.KindMovie, movie.Kind)
	assert.Equal(t, "The Matrix", movie.Title)
	require.NotNil(t, movie.Year)
	assert.Equal(t, 1999, *movie.Year)
	assert.Equal(t, "1", movie.LibrarySectionID)
	assert.Equal(t, 136, movie.DurationMinutes)
	assert.Equal(t, []string{"Keanu Reeves", "Carrie-Anne Moss"}, movie.Cast)
	id, ok := utils.ExtractIMDBID(movie.GuidHints)
	assert.True(t, ok)
	assert.Equal(t, "tt0133093", id)

	season := items[1]
	assert.Equal(t, models.KindSeason, season.Kind)
	assert.Nil(t, season.Year)
	assert.Equal(t, "2", season.LibrarySectionID)
	assert.Equal(t, "Breaking Bad", season.ParentTitle)
	assert.Equal(t, 2, season.SeasonIndex)
	assert.Equal(t, 13, season.EpisodeCount)
	assert.Contains(t, season.GuidHints, "tvdb://81189")
	assert.NotContains(t, season.GuidHints, "tvdb://30272")

	assert.Equal(t, season.GuidHints, items[2].GuidHints)
	assert.Equal(t, 1, showFetches)
}

// pagedLibrary serves total movies newest-first, honouring the container
// start and size parameters, one second apart from newest.
func pagedLibrary(t *testing.T, total int, newest int64, requests *[]int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, err := strconv.Atoi(r.URL.Query().Get("X-Plex-Container-Start"))
		assert.NoError(t, err)
		size, err := strconv.Atoi(r.URL.Query().Get("X-Plex-Container-Size"))
		assert.NoError(t, err)
		*requests = append(*requests, start)

		var page []Metadata
		for i := start; i < total && i < start+size; i++ {
			page = append(page, Metadata{
				RatingKey:        strconv.Itoa(i),
				Type:             "movie",
				Title:            fmt.Sprintf("Movie %d", i),
				AddedAt:          newest - int64(i),
				LibrarySectionID: "1",
			})
		}

		var resp containerResponse
		resp.MediaContainer.Metadata = page
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	})
}

func TestListRecentlyAddedPagesPastFirstPage(t *testing.T) {
	var requests []int
	client := newTestClient(t, pagedLibrary(t, 600, 1700000600, &requests))

	items, err := client.ListRecentlyAdded(context.Background(), time.Unix(1700000000, 0))
	require.NoError(t, err)

	require.Len(t, items, 600)
	assert.Equal(t, "Movie 0", items[0].Title)
	assert.Equal(t, "Movie 599", items[599].Title)
	assert.Equal(t, []int{0, 100, 200, 300, 400, 500, 600}, requests)
}

func TestListRecentlyAddedStopsAtCutoff(t *testing.T) {
	var requests []int
	client := newTestClient(t, pagedLibrary(t, 1000, 1700000150, &requests))

	items, err := client.ListRecentlyAdded(context.Background(), time.Unix(1700000000, 0))
	require.NoError(t, err)

	require.Len(t, items, 151)
	assert.Equal(t, "Movie 150", items[150].Title)
	assert.Equal(t, []int{0, 100}, requests)
}

func TestListRecentlyAddedServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))

	_, err := client.ListRecentlyAdded(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestGetLibrarySectionsAndVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/library/sections", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"MediaContainer":{"Directory":[{"key":"1","title":"Movies","type":"movie"},{"key":"2","title":"TV Shows","type":"show"}]}}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"MediaContainer":{"version":"1.40.0.7998"}}`)
	})
	client := newTestClient(t, mux)

	sections, err := client.GetLibrarySections(context.Background())
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "TV Shows", sections[1].Title)

	version, err := client.GetServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.40.0.7998", version)
}

func TestGetThumbnail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/library/metadata/101/thumb/1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Plex-Token"))
		_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF})
	})
	client := newTestClient(t, mux)

	data, err := client.GetThumbnail(context.Background(), "/library/metadata/101/thumb/1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, data)

	_, err = client.GetThumbnail(context.Background(), "/missing")
	assert.Error(t, err)

	_, err = client.GetThumbnail(context.Background(), "")
	assert.Error(t, err)
}
