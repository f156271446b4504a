package normalizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/mesaops/mesa-backend/pkg/db/models"
	"github.com/mesaops/mesa-backend/pkg/logger"
)

// Service produces search variants for receipt item text and records confirmed
// corrections for future passes.
type Service interface {
	LoadTable(ctx context.Context, restaurantID uuid.UUID) *Table
	Variants(table *Table, text string) []string
	Learn(ctx context.Context, table *Table, originalText, canonicalName string) error
}

// Table is a restaurant's abbreviation table, loaded once per matching pass and passed
// explicitly into every call. Learn updates it in place so later lines in the same pass
// see corrections made for earlier ones.
type Table struct {
	restaurantID uuid.UUID
	expansions   map[string]string
}

// RestaurantID returns the tenant the table was loaded for.
func (t *Table) RestaurantID() uuid.UUID {
	if t == nil {
		return uuid.Nil
	}
	return t.restaurantID
}

// Expand returns the learned expansion for a token, if any.
func (t *Table) Expand(token string) (string, bool) {
	if t == nil || t.expansions == nil {
		return "", false
	}
	expansion, ok := t.expansions[strings.ToLower(strings.TrimSpace(token))]
	return expansion, ok
}

func (t *Table) put(abbreviation, expansion string) {
	if t == nil {
		return
	}
	if t.expansions == nil {
		t.expansions = map[string]string{}
	}
	t.expansions[strings.ToLower(strings.TrimSpace(abbreviation))] = strings.TrimSpace(expansion)
}

// Len returns the number of entries in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.expansions)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires a normalizer service with the provided abbreviation repository.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("abbreviation repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// LoadTable fetches the restaurant's abbreviation table. A load failure degrades to an
// empty table: matching proceeds on exact text only instead of erroring.
func (s *service) LoadTable(ctx context.Context, restaurantID uuid.UUID) *Table {
	table := &Table{restaurantID: restaurantID, expansions: map[string]string{}}

	entries, err := s.repo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithRestaurantID(ctx, restaurantID.String()), "abbreviation table load failed, matching on exact text only")
		}
		return table
	}
	for _, entry := range entries {
		table.put(entry.Abbreviation, entry.Expansion)
	}
	return table
}

var (
	punctPattern    = regexp.MustCompile(`[^\pL\pN\s]`)
	sizeTailPattern = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s*(lb|lbs|oz|kg|g|gal|qt|pt|ml|l|ct|pk|pc|ea|x)\b`)
	numberPattern   = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
)

// Variants returns ordered candidate strings for one receipt text. The unmodified
// input always comes first; abbreviation-expanded and unit/punctuation-stripped forms
// follow. Duplicates and empties are dropped, order preserved.
func (s *service) Variants(table *Table, text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	variants := []string{trimmed}

	if expanded := expandAbbreviations(table, trimmed); expanded != "" {
		variants = append(variants, expanded)
	}
	if stripped := stripUnitsAndPunctuation(trimmed); stripped != "" {
		variants = append(variants, stripped)
	}
	if expanded := expandAbbreviations(table, stripUnitsAndPunctuation(trimmed)); expanded != "" {
		variants = append(variants, expanded)
	}

	return dedupe(variants)
}

// Learn upserts a correction pair so future normalization benefits. The whole original
// text maps to the confirmed name, and shorter differing tokens map pairwise when the
// two texts have the same token count.
func (s *service) Learn(ctx context.Context, table *Table, originalText, canonicalName string) error {
	original := strings.ToLower(strings.TrimSpace(originalText))
	canonical := strings.TrimSpace(canonicalName)
	if original == "" || canonical == "" {
		return fmt.Errorf("original text and canonical name are required")
	}
	if strings.EqualFold(original, canonical) {
		return nil
	}

	pairs := map[string]string{original: canonical}

	originalTokens := strings.Fields(original)
	canonicalTokens := strings.Fields(strings.ToLower(canonical))
	if len(originalTokens) == len(canonicalTokens) {
		for i, token := range originalTokens {
			if token != canonicalTokens[i] && len(token) < len(canonicalTokens[i]) {
				pairs[token] = canonicalTokens[i]
			}
		}
	}

	for abbreviation, expansion := range pairs {
		entry := &models.ItemAbbreviation{
			RestaurantID: table.RestaurantID(),
			Abbreviation: abbreviation,
			Expansion:    expansion,
		}
		if err := s.repo.Upsert(ctx, entry); err != nil {
			return fmt.Errorf("upsert abbreviation %q: %w", abbreviation, err)
		}
		table.put(abbreviation, expansion)
	}
	return nil
}

func expandAbbreviations(table *Table, text string) string {
	if table == nil || table.Len() == 0 || text == "" {
		return ""
	}

	if full, ok := table.Expand(text); ok {
		return full
	}

	tokens := strings.Fields(strings.ToLower(text))
	replaced := false
	for i, token := range tokens {
		if expansion, ok := table.Expand(token); ok {
			tokens[i] = strings.ToLower(expansion)
			replaced = true
		}
	}
	if !replaced {
		return ""
	}
	return strings.Join(tokens, " ")
}

func stripUnitsAndPunctuation(text string) string {
	lowered := strings.ToLower(text)
	lowered = sizeTailPattern.ReplaceAllString(lowered, " ")
	lowered = punctPattern.ReplaceAllString(lowered, " ")
	lowered = numberPattern.ReplaceAllString(lowered, " ")
	return strings.Join(strings.Fields(lowered), " ")
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		key := strings.ToLower(strings.TrimSpace(value))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, value)
	}
	return out
}
