package imgur

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amaumene/plexdigest/internal/config"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.imgur.com"

// ErrNotImage is returned when the uploaded payload is not an image
var ErrNotImage = errors.New("imgur: payload is not an image")

// UploadResult describes a hosted image
type UploadResult struct {
	Link       string
	DeleteHash string
	Width      int
	Height     int
}

type uploadResponse struct {
	Data struct {
		Link       string `json:"link"`
		DeleteHash string `json:"deletehash"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		Error      string `json:"error"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

// Client uploads images to Imgur anonymously
type Client struct {
	clientID   string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewClient creates a new Imgur client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.ImgurClientID == "" {
		return nil, fmt.Errorf("Imgur client id is required")
	}

	return &Client{
		clientID:   cfg.ImgurClientID,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		// Anonymous uploads are capped per hour; one per second with a small burst stays well under
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		logger:  logger,
	}, nil
}

// Upload hosts the image and returns its public link and delete hash
func (c *Client) Upload(ctx context.Context, image []byte) (*UploadResult, error) {
	mtype := mimetype.Detect(image)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, mtype.String())
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("upload rate limiter: %w", err)
	}

	form := url.Values{}
	form.Set("image", base64.StdEncoding.EncodeToString(image))
	form.Set("type", "base64")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/3/image", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.clientID)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.WithFields(logrus.Fields{
		"bytes": len(image),
		"mime":  mtype.String(),
	}).Debug("Uploading image to Imgur")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result uploadResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || !result.Success {
		return nil, fmt.Errorf("upload rejected with status %d: %s", resp.StatusCode, result.Data.Error)
	}
	if result.Data.Link == "" {
		return nil, fmt.Errorf("upload response carries no link")
	}

	return &UploadResult{
		Link:       result.Data.Link,
		DeleteHash: result.Data.DeleteHash,
		Width:      result.Data.Width,
		Height:     result.Data.Height,
	}, nil
}
