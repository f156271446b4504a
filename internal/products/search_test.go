package product

import (
	"testing"

	"github.com/mesaops/mesa-backend/pkg/db/models"
	"github.com/mesaops/mesa-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
)

func TestEditScore(t *testing.T) {
	assert.Equal(t, 1.0, EditScore("Chicken Breast", "chicken breast"))
	assert.Equal(t, 0.0, EditScore("", ""))

	// one substitution across 7 runes
	assert.InDelta(t, 1.0-1.0/7.0, EditScore("chicken", "chicjen"), 1e-9)

	// completely different strings score low
	assert.Less(t, EditScore("napkins", "olive oil"), 0.3)
}

func TestCombinedScoreWeighting(t *testing.T) {
	assert.InDelta(t, 0.82, CombinedScore(0.9, 0.7), 1e-9)
	assert.Equal(t, 0.0, CombinedScore(0, 0))
	assert.Equal(t, 1.0, CombinedScore(1, 1))
}

func TestClassify(t *testing.T) {
	withHistory := models.Product{
		Name:             "Chicken Breast",
		ReceiptItemNames: []string{"CHKN BRST 5LB"},
	}

	tests := []struct {
		name       string
		variant    string
		product    models.Product
		similarity float64
		want       enums.MatchType
	}{
		{
			name:       "recorded receipt text outranks everything",
			variant:    "chkn brst 5lb",
			product:    withHistory,
			similarity: 0.1,
			want:       enums.MatchTypeReceiptExact,
		},
		{
			name:       "exact name match",
			variant:    "  chicken breast ",
			product:    models.Product{Name: "Chicken Breast"},
			similarity: 0.5,
			want:       enums.MatchTypeExact,
		},
		{
			name:       "high similarity without exact name",
			variant:    "chicken brst",
			product:    models.Product{Name: "Chicken Breast"},
			similarity: 0.9,
			want:       enums.MatchTypeVerySimilar,
		},
		{
			name:       "everything else is fuzzy",
			variant:    "chkn",
			product:    models.Product{Name: "Chicken Breast"},
			similarity: 0.4,
			want:       enums.MatchTypeFuzzy,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.variant, tc.product, tc.similarity, 0.85)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScoreCandidate(t *testing.T) {
	candidate := ScoreCandidate("chicken breast", models.Product{Name: "Chicken Breast"}, 0.95, 0.85)

	assert.Equal(t, enums.MatchTypeExact, candidate.MatchType)
	assert.Equal(t, 1.0, candidate.EditScore)
	assert.InDelta(t, 0.6*0.95+0.4, candidate.CombinedScore, 1e-9)
}

func TestSortCandidates_StrengthBeatsScore(t *testing.T) {
	fuzzyHigh := Candidate{MatchType: enums.MatchTypeFuzzy, CombinedScore: 0.99}
	receiptExactLow := Candidate{MatchType: enums.MatchTypeReceiptExact, CombinedScore: 0.40}
	verySimilar := Candidate{MatchType: enums.MatchTypeVerySimilar, CombinedScore: 0.80}

	candidates := []Candidate{fuzzyHigh, verySimilar, receiptExactLow}
	sortCandidates(candidates)

	assert.Equal(t, enums.MatchTypeReceiptExact, candidates[0].MatchType)
	assert.Equal(t, enums.MatchTypeVerySimilar, candidates[1].MatchType)
	assert.Equal(t, enums.MatchTypeFuzzy, candidates[2].MatchType)
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("same", "same"))
	assert.Equal(t, 4, levenshtein("", "four"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}
