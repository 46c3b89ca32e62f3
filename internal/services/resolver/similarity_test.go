package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"identical", "apple", "apple", 1.0},
		{"empty both", "", "", 1.0},
		{"disjoint", "abc", "xyz", 0.0},
		{"single dropped letter", "aple", "apple", 8.0 / 9.0},
		{"transposed letters", "micorsoft", "microsoft", 16.0 / 18.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilaritySymmetricBounds(t *testing.T) {
	pairs := [][2]string{
		{"goldman sachs", "goldman sacks"},
		{"tesla", "telsa"},
		{"amazon", "amazn"},
	}
	for _, p := range pairs {
		s := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
		assert.InDelta(t, s, Similarity(p[1], p[0]), 1e-9)
	}
}

func TestCloseMatches(t *testing.T) {
	candidates := []string{"apple", "applied materials", "snapple", "microsoft"}

	t.Run("orders best first", func(t *testing.T) {
		matches := closeMatches("aple", candidates, 3, 0.6)
		if assert.NotEmpty(t, matches) {
			assert.Equal(t, "apple", matches[0].value)
		}
	})

	t.Run("respects cutoff", func(t *testing.T) {
		matches := closeMatches("aple", candidates, 3, 0.99)
		assert.Empty(t, matches)
	})

	t.Run("respects limit", func(t *testing.T) {
		matches := closeMatches("aple", candidates, 1, 0.5)
		assert.Len(t, matches, 1)
	})
}
