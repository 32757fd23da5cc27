package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Ledger backends
const (
	LedgerBackendCSV  = "csv"
	LedgerBackendBolt = "bolt"
)

// Config holds all application configuration
type Config struct {
	// Plex
	PlexURL   string
	PlexToken string

	// TMDB
	TMDBAPIKey     string
	TMDBPosterSize string // e.g. "w300"

	// Imgur poster mirroring
	PosterMirror  bool
	ImgurClientID string
	LedgerBackend string // "csv" or "bolt"

	// Digest
	DigestDays           int      // Trailing window in days (default: 7)
	ExcludedLibraries    []string // Library section ids or titles
	PlaceholderPosterURL string

	// Pacing
	RateLimitEvery int           // Lookups between pauses (default: 15)
	RateLimitPause time.Duration // Pause duration (default: 10s)

	// Mail
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailTo       []string
	MailSubject  string

	// Scheduling
	Schedule   string
	RunOnStart bool
	ServerPort string

	// Paths
	LedgerCSVFile  string // $CONFIG_DIR/posters.csv
	LedgerBoltFile string // $CONFIG_DIR/posters.db
	ExclusionsFile string // $CONFIG_DIR/excluded_libraries.txt

	// Logging & metrics
	LogLevel        string
	LogFile         string
	MetricsTextfile string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	v.SetDefault("TMDB_POSTER_SIZE", "w300")
	v.SetDefault("POSTER_MIRROR", false)
	v.SetDefault("LEDGER_BACKEND", LedgerBackendCSV)
	v.SetDefault("DIGEST_DAYS", 7)
	v.SetDefault("PLACEHOLDER_POSTER_URL", "https://via.placeholder.com/300x450?text=No+Poster")
	v.SetDefault("RATE_LIMIT_EVERY", 15)
	v.SetDefault("RATE_LIMIT_PAUSE", "10s")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_SUBJECT", "Recently added to Plex")
	v.SetDefault("SCHEDULE", "0 8 * * 0")
	v.SetDefault("RUN_ON_START", false)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")

	configDir := v.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "plexdigest")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		// Plex
		PlexURL:   strings.TrimRight(v.GetString("PLEX_URL"), "/"),
		PlexToken: v.GetString("PLEX_TOKEN"),

		// TMDB
		TMDBAPIKey:     v.GetString("TMDB_API_KEY"),
		TMDBPosterSize: v.GetString("TMDB_POSTER_SIZE"),

		// Imgur
		PosterMirror:  v.GetBool("POSTER_MIRROR"),
		ImgurClientID: v.GetString("IMGUR_CLIENT_ID"),
		LedgerBackend: strings.ToLower(v.GetString("LEDGER_BACKEND")),

		// Digest
		DigestDays:           v.GetInt("DIGEST_DAYS"),
		ExcludedLibraries:    splitList(v.GetString("EXCLUDED_LIBRARIES")),
		PlaceholderPosterURL: v.GetString("PLACEHOLDER_POSTER_URL"),

		// Pacing
		RateLimitEvery: v.GetInt("RATE_LIMIT_EVERY"),
		RateLimitPause: v.GetDuration("RATE_LIMIT_PAUSE"),

		// Mail
		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUsername: v.GetString("SMTP_USERNAME"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		MailFrom:     v.GetString("MAIL_FROM"),
		MailTo:       splitList(v.GetString("MAIL_TO")),
		MailSubject:  v.GetString("MAIL_SUBJECT"),

		// Scheduling
		Schedule:   v.GetString("SCHEDULE"),
		RunOnStart: v.GetBool("RUN_ON_START"),
		ServerPort: v.GetString("SERVER_PORT"),

		// Paths
		LedgerCSVFile:  filepath.Join(configDir, "posters.csv"),
		LedgerBoltFile: filepath.Join(configDir, "posters.db"),
		ExclusionsFile: filepath.Join(configDir, "excluded_libraries.txt"),

		// Logging
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFile:         v.GetString("LOG_FILE"),
		MetricsTextfile: v.GetString("METRICS_TEXTFILE"),
	}

	// Validate required fields
	if config.PlexURL == "" {
		return nil, fmt.Errorf("PLEX_URL is required")
	}
	if config.PlexToken == "" {
		return nil, fmt.Errorf("PLEX_TOKEN is required")
	}
	if config.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY is required")
	}
	if config.PosterMirror && config.ImgurClientID == "" {
		return nil, fmt.Errorf("IMGUR_CLIENT_ID is required when POSTER_MIRROR is enabled")
	}
	if config.LedgerBackend != LedgerBackendCSV && config.LedgerBackend != LedgerBackendBolt {
		return nil, fmt.Errorf("LEDGER_BACKEND must be %q or %q, got %q", LedgerBackendCSV, LedgerBackendBolt, config.LedgerBackend)
	}
	if config.DigestDays <= 0 {
		return nil, fmt.Errorf("DIGEST_DAYS must be positive")
	}
	if config.RateLimitEvery <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_EVERY must be positive")
	}

	return config, nil
}

// ValidateMail checks the settings needed to deliver the digest by email.
// Dry runs skip this check.
func (c *Config) ValidateMail() error {
	if c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST is required")
	}
	if c.MailFrom == "" {
		return fmt.Errorf("MAIL_FROM is required")
	}
	if len(c.MailTo) == 0 {
		return fmt.Errorf("MAIL_TO is required")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
