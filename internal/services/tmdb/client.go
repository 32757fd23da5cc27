package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/amaumene/plexdigest/internal/config"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL      = "https://api.themoviedb.org"
	defaultImageBaseURL = "https://image.tmdb.org/t/p"

	// External id sources accepted by the find endpoint
	SourceIMDB = "imdb_id"
	SourceTVDB = "tvdb_id"
)

// ErrNotFound is returned when TMDB has no record for a lookup
var ErrNotFound = errors.New("tmdb: not found")

// Client handles communication with the TMDB v3 API
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	posterSize   string
	httpClient   *http.Client
	cache        *cache.Cache
	logger       *logrus.Logger
}

// NewClient creates a new TMDB API client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB API key is required")
	}

	posterSize := cfg.TMDBPosterSize
	if posterSize == "" {
		posterSize = "w300"
	}

	return &Client{
		apiKey:       cfg.TMDBAPIKey,
		baseURL:      defaultBaseURL,
		imageBaseURL: defaultImageBaseURL,
		posterSize:   posterSize,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		cache:        cache.New(6*time.Hour, 30*time.Minute),
		logger:       logger,
	}, nil
}

// doRequest performs a GET against the API and decodes the JSON body into result.
// Successful bodies are memoised so repeated lookups in a run cost one call.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	cacheKey := path + "?" + params.Encode()

	if cached, ok := c.cache.Get(cacheKey); ok {
		c.logger.WithField("path", path).Debug("TMDB response served from cache")
		return json.Unmarshal(cached.([]byte), result)
	}

	params.Set("api_key", c.apiKey)
	fullURL := c.baseURL + path + "?" + params.Encode()

	c.logger.WithFields(logrus.Fields{
		"path":   path,
		"params": cacheKey,
	}).Debug("Making TMDB API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "plexdigest/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	c.cache.SetDefault(cacheKey, body)
	return nil
}

// FindByExternalID resolves an IMDB or TVDB id to TMDB records
func (c *Client) FindByExternalID(ctx context.Context, externalID, source string) (*FindResponse, error) {
	params := url.Values{}
	params.Set("external_source", source)

	var found FindResponse
	if err := c.doRequest(ctx, "/3/find/"+url.PathEscape(externalID), params, &found); err != nil {
		return nil, fmt.Errorf("failed to find %s %s: %w", source, externalID, err)
	}
	return &found, nil
}

// MovieDetails fetches a movie by TMDB id
func (c *Client) MovieDetails(ctx context.Context, id int) (*MovieDetails, error) {
	var details MovieDetails
	if err := c.doRequest(ctx, "/3/movie/"+strconv.Itoa(id), nil, &details); err != nil {
		return nil, fmt.Errorf("failed to get movie %d: %w", id, err)
	}
	return &details, nil
}

// SearchMovies searches movies by title, optionally restricted to a release year
func (c *Client) SearchMovies(ctx context.Context, query string, year int) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var results SearchResponse
	if err := c.doRequest(ctx, "/3/search/movie", params, &results); err != nil {
		return nil, fmt.Errorf("failed to search movies: %w", err)
	}
	return results.Results, nil
}

// TVDetails fetches a show by TMDB id
func (c *Client) TVDetails(ctx context.Context, id int) (*TVDetails, error) {
	var details TVDetails
	if err := c.doRequest(ctx, "/3/tv/"+strconv.Itoa(id), nil, &details); err != nil {
		return nil, fmt.Errorf("failed to get show %d: %w", id, err)
	}
	return &details, nil
}

// TVContentRatings fetches per-region content ratings of a show
func (c *Client) TVContentRatings(ctx context.Context, id int) ([]ContentRating, error) {
	var ratings ContentRatingsResponse
	if err := c.doRequest(ctx, "/3/tv/"+strconv.Itoa(id)+"/content_ratings", nil, &ratings); err != nil {
		return nil, fmt.Errorf("failed to get content ratings for show %d: %w", id, err)
	}
	return ratings.Results, nil
}

// TVExternalIDs fetches the cross-reference ids of a show
func (c *Client) TVExternalIDs(ctx context.Context, id int) (*ExternalIDs, error) {
	var ids ExternalIDs
	if err := c.doRequest(ctx, "/3/tv/"+strconv.Itoa(id)+"/external_ids", nil, &ids); err != nil {
		return nil, fmt.Errorf("failed to get external ids for show %d: %w", id, err)
	}
	return &ids, nil
}

// PosterURL composes a fixed-width image URL from a poster path
func (c *Client) PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return c.imageBaseURL + "/" + c.posterSize + posterPath
}
