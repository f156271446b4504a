package product

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mesaops/mesa-backend/pkg/db/models"
	"github.com/mesaops/mesa-backend/pkg/enums"
)

// Candidate is one ranked catalog match for a search variant.
type Candidate struct {
	Product       models.Product
	Similarity    float64
	EditScore     float64
	CombinedScore float64
	MatchType     enums.MatchType
}

// SearchParams configures one candidate search call. Threshold is deliberately
// permissive: search optimizes for recall, the decision step filters afterwards.
type SearchParams struct {
	RestaurantID      uuid.UUID
	Variant           string
	Threshold         float64
	Limit             int
	VerySimilarCutoff float64
}

// Searcher is the candidate search surface the matching service depends on.
type Searcher interface {
	SearchCandidates(ctx context.Context, params SearchParams) ([]Candidate, error)
}

const candidateSearchQuery = `
SELECT p.*, similarity(lower(p.name), lower(@variant)) AS sim
FROM products p
WHERE p.restaurant_id = @restaurant_id
  AND (
    similarity(lower(p.name), lower(@variant)) >= @threshold
    OR EXISTS (
      SELECT 1 FROM unnest(p.receipt_item_names) AS rin
      WHERE lower(rin) = lower(@variant)
    )
  )
ORDER BY sim DESC
LIMIT @limit
`

type searchRow struct {
	models.Product `gorm:"embedded"`
	Sim            float64 `gorm:"column:sim"`
}

// SearchCandidates runs a trigram similarity search over the restaurant's catalog and
// scores each hit. Products whose recorded receipt texts match the variant exactly are
// always included, whatever their name similarity.
func (r *Repository) SearchCandidates(ctx context.Context, params SearchParams) ([]Candidate, error) {
	var rows []searchRow
	if err := r.db.WithContext(ctx).
		Raw(candidateSearchQuery,
			map[string]any{
				"variant":       params.Variant,
				"restaurant_id": params.RestaurantID,
				"threshold":     params.Threshold,
				"limit":         params.Limit,
			}).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, ScoreCandidate(params.Variant, row.Product, row.Sim, params.VerySimilarCutoff))
	}
	sortCandidates(candidates)
	return candidates, nil
}

// ScoreCandidate blends the trigram similarity with an edit-distance score and
// classifies the match.
func ScoreCandidate(variant string, product models.Product, similarity, verySimilarCutoff float64) Candidate {
	editScore := EditScore(variant, product.Name)
	return Candidate{
		Product:       product,
		Similarity:    similarity,
		EditScore:     editScore,
		CombinedScore: CombinedScore(similarity, editScore),
		MatchType:     classify(variant, product, similarity, verySimilarCutoff),
	}
}

// CombinedScore weights trigram similarity over edit distance: trigram handles word
// reordering and partial tokens better, edit distance tightens near-identical strings.
func CombinedScore(similarity, editScore float64) float64 {
	return 0.6*similarity + 0.4*editScore
}

// EditScore is a normalized Levenshtein ratio in [0, 1].
func EditScore(a, b string) float64 {
	left := strings.ToLower(strings.TrimSpace(a))
	right := strings.ToLower(strings.TrimSpace(b))
	if left == right {
		return 1
	}
	longest := maxInt(len([]rune(left)), len([]rune(right)))
	if longest == 0 {
		return 0
	}
	distance := levenshtein(left, right)
	score := 1 - float64(distance)/float64(longest)
	if score < 0 {
		return 0
	}
	return score
}

func classify(variant string, product models.Product, similarity, verySimilarCutoff float64) enums.MatchType {
	if product.HasReceiptItemName(variant) {
		return enums.MatchTypeReceiptExact
	}
	if strings.EqualFold(strings.TrimSpace(variant), strings.TrimSpace(product.Name)) {
		return enums.MatchTypeExact
	}
	if similarity >= verySimilarCutoff {
		return enums.MatchTypeVerySimilar
	}
	return enums.MatchTypeFuzzy
}

// sortCandidates orders by match strength first, then combined score.
func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].MatchType.Strength() != candidates[j].MatchType.Strength() {
			return candidates[i].MatchType.Strength() > candidates[j].MatchType.Strength()
		}
		return candidates[i].CombinedScore > candidates[j].CombinedScore
	})
}

func levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := 0; j <= len(br); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, minInt(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
