package utils

import (
	"regexp"
)

var (
	imdbIDRegex = regexp.MustCompile(`\b(tt\d{6,})\b`)
	// Legacy agent form "com.plexapp.agents.thetvdb://12345" and new form "tvdb://12345"
	tvdbIDRegex = regexp.MustCompile(`(?:thetvdb|tvdb)://(\d+)`)
)

// ExtractIMDBID returns the first IMDB identifier embedded in a guid hint string.
// The boolean is false when the hint carries no identifier.
func ExtractIMDBID(hint string) (string, bool) {
	matches := imdbIDRegex.FindStringSubmatch(hint)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// ExtractTVDBID returns the first TVDB series identifier embedded in a guid hint string
func ExtractTVDBID(hint string) (string, bool) {
	matches := tvdbIDRegex.FindStringSubmatch(hint)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}
