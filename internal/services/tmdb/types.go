package tmdb

// FindResponse represents the response of the find endpoint
type FindResponse struct {
	MovieResults []FindResult `json:"movie_results"`
	TVResults    []FindResult `json:"tv_results"`
}

// FindResult is a candidate returned by the find endpoint
type FindResult struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Name  string `json:"name"`
}

// Genre represents a TMDB genre
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails represents the movie detail response
type MovieDetails struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Runtime     int     `json:"runtime"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	IMDBID      string  `json:"imdb_id"`
	Genres      []Genre `json:"genres"`
}

// SearchResponse represents the movie search response
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchResult is one movie search candidate
type SearchResult struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	ReleaseDate   string `json:"release_date"`
}

// TVDetails represents the show detail response
type TVDetails struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	FirstAirDate string  `json:"first_air_date"`
	LastAirDate  string  `json:"last_air_date"`
	PosterPath   string  `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Genres       []Genre `json:"genres"`
}

// ContentRatingsResponse represents the show content ratings response
type ContentRatingsResponse struct {
	Results []ContentRating `json:"results"`
}

// ContentRating is the rating of a show in one region
type ContentRating struct {
	ISO31661 string `json:"iso_3166_1"`
	Rating   string `json:"rating"`
}

// ExternalIDs holds the cross-reference ids of a show
type ExternalIDs struct {
	IMDBID string `json:"imdb_id"`
	TVDBID int    `json:"tvdb_id"`
}
