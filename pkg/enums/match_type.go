package enums

import "fmt"

// MatchType classifies how a catalog candidate matched a receipt text variant.
type MatchType string

const (
	MatchTypeReceiptExact MatchType = "receipt_exact"
	MatchTypeExact        MatchType = "exact"
	MatchTypeVerySimilar  MatchType = "very_similar"
	MatchTypeFuzzy        MatchType = "fuzzy"
)

var validMatchTypes = []MatchType{
	MatchTypeReceiptExact,
	MatchTypeExact,
	MatchTypeVerySimilar,
	MatchTypeFuzzy,
}

// IsValid reports whether the value matches the canonical match type enum.
func (t MatchType) IsValid() bool {
	for _, candidate := range validMatchTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Strength ranks match types from weakest (0) to strongest. receipt_exact outranks
// exact, which outranks very_similar, which outranks a score-only fuzzy hit.
func (t MatchType) Strength() int {
	switch t {
	case MatchTypeReceiptExact:
		return 3
	case MatchTypeExact:
		return 2
	case MatchTypeVerySimilar:
		return 1
	default:
		return 0
	}
}

// ParseMatchType converts raw input into MatchType.
func ParseMatchType(value string) (MatchType, error) {
	for _, candidate := range validMatchTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid match type %q", value)
}
