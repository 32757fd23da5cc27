package plex

import "strconv"

type containerResponse struct {
	MediaContainer MediaContainer `json:"MediaContainer"`
}

// MediaContainer is the envelope of every Plex JSON response
type MediaContainer struct {
	Size      int              `json:"size"`
	Version   string           `json:"version"`
	Directory []LibrarySection `json:"Directory"`
	Metadata  []Metadata       `json:"Metadata"`
}

// LibrarySection represents a library of the server
type LibrarySection struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Metadata represents an item of the recently added feed
type Metadata struct {
	RatingKey           string    `json:"ratingKey"`
	ParentRatingKey     string    `json:"parentRatingKey"`
	Type                string    `json:"type"`
	Title               string    `json:"title"`
	Year                int       `json:"year"`
	Guid                string    `json:"guid"`
	ParentGuid          string    `json:"parentGuid"`
	Guids               []Tag     `json:"Guid"`
	AddedAt             int64     `json:"addedAt"`
	LibrarySectionID    SectionID `json:"librarySectionID"`
	LibrarySectionTitle string    `json:"librarySectionTitle"`
	ParentTitle         string    `json:"parentTitle"`
	ParentThumb         string    `json:"parentThumb"`
	Index               int       `json:"index"`
	LeafCount           int       `json:"leafCount"`
	Thumb               string    `json:"thumb"`
	ContentRating       string    `json:"contentRating"`
	Summary             string    `json:"summary"`
	Duration            int64     `json:"duration"` // Milliseconds
	Roles               []Tag     `json:"Role"`
}

// Tag is a generic Plex tag entry ({"id": ...} for guids, {"tag": ...} for roles)
type Tag struct {
	ID  string `json:"id"`
	Tag string `json:"tag"`
}

// SectionID accepts both numeric and string section ids
type SectionID string

// UnmarshalJSON implements json.Unmarshaler
func (s *SectionID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		unquoted, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*s = SectionID(unquoted)
		return nil
	}
	if string(data) == "null" {
		*s = ""
		return nil
	}
	*s = SectionID(data)
	return nil
}
