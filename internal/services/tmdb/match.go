package tmdb

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTitleSimilarity is the lowest score a search candidate may have to be accepted
const minTitleSimilarity = 0.6

// normalizeTitle strips accents, folds case and collapses punctuation to single spaces
func normalizeTitle(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = cases.Fold().String(out)

	fields := strings.FieldsFunc(out, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return strings.Join(fields, " ")
}

// titleSimilarity returns a score in [0,1], 1 meaning identical after normalization
func titleSimilarity(a, b string) float64 {
	a, b = normalizeTitle(a), normalizeTitle(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// bestMatch picks the search result closest to the query title
func bestMatch(query string, results []SearchResult) (SearchResult, float64, bool) {
	var best SearchResult
	bestScore := 0.0

	for _, r := range results {
		score := titleSimilarity(query, r.Title)
		if r.OriginalTitle != "" {
			if s := titleSimilarity(query, r.OriginalTitle); s > score {
				score = s
			}
		}
		if score > bestScore {
			best, bestScore = r, score
		}
	}

	if bestScore < minTitleSimilarity {
		return SearchResult{}, bestScore, false
	}
	return best, bestScore, true
}
