package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "SB-1200", "SB-1200", 100},
		{"case insensitive", "sb-1200", "SB-1200", 100},
		{"both empty", "", "", 100},
		{"one empty", "", "SB", 0},
		{"one edit of seven", "SB-1200", "SB-1250", 85},
		{"disjoint", "AB", "XY", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.a, tt.b))
		})
	}
}

func TestScoreIsSymmetric(t *testing.T) {
	assert.Equal(t, Score("SB-1200", "TB-600"), Score("TB-600", "SB-1200"))
}

func TestRankOrdersByScore(t *testing.T) {
	catalog := []CatalogItem{
		{Code: "TB-600", W: 600, D: 600, H: 720},
		{Code: "SB-1200", W: 1200, D: 330, H: 900},
		{Code: "SB-1250", W: 1250, D: 330, H: 900},
	}

	matches := Rank(catalog, "sb-1200", 0)
	require.Len(t, matches, 3)
	assert.Equal(t, "SB-1200", matches[0].Code)
	assert.Equal(t, 100, matches[0].Score)
	assert.Equal(t, "SB-1250", matches[1].Code)
	assert.Equal(t, 1200, matches[0].W)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
}

func TestRankLimit(t *testing.T) {
	catalog := []CatalogItem{
		{Code: "A"}, {Code: "B"}, {Code: "C"},
	}
	assert.Len(t, Rank(catalog, "A", 2), 2)
	assert.Len(t, Rank(catalog, "A", 0), 3)
	assert.Empty(t, Rank(nil, "A", 5))
}
