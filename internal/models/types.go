package models

// MediaKind represents the kind of a recently added item
type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindSeason MediaKind = "season"
	KindShow   MediaKind = "show"
)

// LookupState tracks an item through enrichment
type LookupState string

const (
	StatePending        LookupState = "pending"
	StateFound          LookupState = "found"
	StateNotFound       LookupState = "not_found"
	StatePosterResolved LookupState = "poster_resolved"
	StateRendered       LookupState = "rendered"
)

// NotFoundReason explains why an item could not be enriched
type NotFoundReason string

const (
	ReasonNoMatch      NotFoundReason = "no_match"      // Database has no record
	ReasonLookupFailed NotFoundReason = "lookup_failed" // Network or API failure
)
