package models

// RawMediaItem represents one entry of the media server's recently added feed
type RawMediaItem struct {
	Kind      MediaKind
	RatingKey string
	Title     string
	Year      *int // nil when the server does not know the year

	// Raw guid strings the identifiers are extracted from
	GuidHints string

	AddedAt             int64 // Unix seconds
	LibrarySectionID    string
	LibrarySectionTitle string

	// Season specific fields
	ParentTitle  string // Show name
	ParentThumb  string // Show poster path
	SeasonIndex  int
	EpisodeCount int

	// Passthrough fields, never refetched
	Thumb           string
	ContentRating   string
	Summary         string
	Cast            []string
	DurationMinutes int
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
