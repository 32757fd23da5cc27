package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/amaumene/plexdigest/internal/config"
	"github.com/sirupsen/logrus"
)

// Client handles communication with a Plex Media Server
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new Plex client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.PlexURL == "" || cfg.PlexToken == "" {
		return nil, fmt.Errorf("Plex URL and token are required")
	}

	return &Client{
		baseURL:    cfg.PlexURL,
		token:      cfg.PlexToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// newRequest builds an authenticated request against the server
func (c *Client) newRequest(ctx context.Context, path string, params url.Values) (*http.Request, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("X-Plex-Client-Identifier", "plexdigest")
	req.Header.Set("X-Plex-Product", "plexdigest")
	return req, nil
}

// doRequest performs a GET and decodes the JSON MediaContainer response
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	c.logger.WithField("path", path).Debug("Making Plex API request")

	req, err := c.newRequest(ctx, path, params)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetServerVersion returns the version string reported by the server
func (c *Client) GetServerVersion(ctx context.Context) (string, error) {
	var resp containerResponse
	if err := c.doRequest(ctx, "/", nil, &resp); err != nil {
		return "", fmt.Errorf("failed to get server identity: %w", err)
	}
	return resp.MediaContainer.Version, nil
}

// GetLibrarySections lists the library sections of the server
func (c *Client) GetLibrarySections(ctx context.Context) ([]LibrarySection, error) {
	var resp containerResponse
	if err := c.doRequest(ctx, "/library/sections", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get library sections: %w", err)
	}
	return resp.MediaContainer.Directory, nil
}

// GetThumbnail downloads an image served by Plex, e.g. an item's thumb path
func (c *Client) GetThumbnail(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("empty thumbnail path")
	}

	req, err := c.newRequest(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("thumbnail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("thumbnail request failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read thumbnail: %w", err)
	}
	return data, nil
}

// getMetadata fetches a single metadata item including its external guids
func (c *Client) getMetadata(ctx context.Context, ratingKey string) (*Metadata, error) {
	params := url.Values{}
	params.Set("includeGuids", "1")

	var resp containerResponse
	if err := c.doRequest(ctx, "/library/metadata/"+url.PathEscape(ratingKey), params, &resp); err != nil {
		return nil, fmt.Errorf("failed to get metadata %s: %w", ratingKey, err)
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return nil, fmt.Errorf("metadata %s not found", ratingKey)
	}
	return &resp.MediaContainer.Metadata[0], nil
}
