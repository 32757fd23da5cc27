package tmdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"The Matrix", "the matrix"},
		{"Amélie", "amelie"},
		{"Spider-Man: No Way Home", "spider man no way home"},
		{"  WALL·E  ", "wall e"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeTitle(tt.input), tt.input)
	}
}

func TestTitleSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, titleSimilarity("Amélie", "amelie"))
	assert.Equal(t, 0.0, titleSimilarity("", "anything"))
	assert.Greater(t, titleSimilarity("The Matrix", "The Matrlx"), 0.8)
	assert.Less(t, titleSimilarity("The Matrix", "Finding Nemo"), 0.6)
}

func TestBestMatch(t *testing.T) {
	results := []SearchResult{
		{ID: 1, Title: "Finding Nemo"},
		{ID: 2, Title: "Le Fabuleux Destin d'Amélie Poulain", OriginalTitle: "Amélie"},
	}

	match, _, ok := bestMatch("Amelie", results)
	assert.True(t, ok)
	assert.Equal(t, 2, match.ID)

	_, _, ok = bestMatch("Zzz Unrelated", results)
	assert.False(t, ok)

	_, _, ok = bestMatch("Anything", nil)
	assert.False(t, ok)
}
