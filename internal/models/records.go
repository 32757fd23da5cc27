package models

import (
	"fmt"
	"math"
	"time"
)

// SeasonSummary is one season row of a show entry
type SeasonSummary struct {
	Title        string
	Index        int
	EpisodeCount int
}

// EpisodeLabel renders the episode count, e.g. "1 Episode" or "8 Episodes"
func (s SeasonSummary) EpisodeLabel() string {
	return EpisodeLabel(s.EpisodeCount)
}

// EnrichedRecord is the normalized result of a successful lookup
type EnrichedRecord struct {
	Kind        MediaKind
	Title       string
	DisplayYear string // "1999" for movies, "2008-2013" for shows
	IMDBID      string
	TMDBID      int

	PosterURL    string // Empty when no poster is available
	PosterWidth  int
	PosterHeight int

	Genres         []string
	ContentRating  string
	RuntimeMinutes *int // Movies only
	Overview       string
	Cast           []string
	VoteAverage    *float64 // Rounded to one decimal

	Seasons []SeasonSummary // Shows only, ascending index
}

// VoteLabel renders the vote average with one decimal, or "" when absent
func (r *EnrichedRecord) VoteLabel() string {
	if r.VoteAverage == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *r.VoteAverage)
}

// HasPoster reports whether a poster URL is available
func (r *EnrichedRecord) HasPoster() bool {
	return r.PosterURL != ""
}

// NotFoundRecord carries just enough of the source item to render it
type NotFoundRecord struct {
	Kind    MediaKind
	Title   string
	Year    *int
	Seasons []SeasonSummary
	Reason  NotFoundReason
}

// DigestEntry holds exactly one of Found or Missing
type DigestEntry struct {
	Found   *EnrichedRecord
	Missing *NotFoundRecord
	AddedAt int64
}

// IsFound reports whether the entry was enriched
func (e DigestEntry) IsFound() bool {
	return e.Found != nil
}

// Title returns the display title of either record
func (e DigestEntry) Title() string {
	if e.Found != nil {
		return e.Found.Title
	}
	if e.Missing != nil {
		return e.Missing.Title
	}
	return ""
}

// Digest is the enrichment output handed to the renderer
type Digest struct {
	RunID         string
	Since         time.Time
	GeneratedAt   time.Time
	ServerVersion string

	Movies []DigestEntry
	Shows  []DigestEntry

	MovieCount     int
	ShowCount      int
	MoviesNotFound int
	ShowsNotFound  int
}

// IsEmpty reports whether nothing was added in the window
func (d *Digest) IsEmpty() bool {
	return d.MovieCount == 0 && d.ShowCount == 0
}

// EpisodeLabel pluralizes an episode count
func EpisodeLabel(count int) string {
	if count > 1 {
		return fmt.Sprintf("%d Episodes", count)
	}
	return fmt.Sprintf("%d Episode", count)
}

// YearRange renders a show's airing span.
// Equal years collapse to a single year; an unknown end renders the start only.
func YearRange(first, last int) string {
	switch {
	case first == 0 && last == 0:
		return ""
	case first == 0:
		return fmt.Sprintf("%d", last)
	case last == 0 || last == first:
		return fmt.Sprintf("%d", first)
	default:
		return fmt.Sprintf("%d-%d", first, last)
	}
}

// RoundVote rounds a vote average to one decimal place
func RoundVote(v float64) float64 {
	return math.Round(v*10) / 10
}
