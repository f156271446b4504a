package matching

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mesaops/mesa-backend/internal/normalizer"
	product "github.com/mesaops/mesa-backend/internal/products"
	"github.com/mesaops/mesa-backend/pkg/config"
	"github.com/mesaops/mesa-backend/pkg/db/models"
	"github.com/mesaops/mesa-backend/pkg/enums"
	"github.com/mesaops/mesa-backend/pkg/logger"
	"github.com/mesaops/mesa-backend/pkg/metrics"
)

// LineStore is the slice of the receipt store the matcher writes mappings through.
type LineStore interface {
	UpdateLineItem(ctx context.Context, lineItemID uuid.UUID, updates map[string]any) (*models.ReceiptLineItem, error)
}

// Service runs the auto-match decision over a receipt's line items.
type Service interface {
	ResolvePending(ctx context.Context, restaurantID uuid.UUID, lines []models.ReceiptLineItem) (int, error)
}

type service struct {
	normalizer normalizer.Service
	searcher   product.Searcher
	lines      LineStore
	cfg        config.MatchingConfig
	metrics    *metrics.ReconciliationMetrics
	logg       *logger.Logger
}

// NewService wires the auto-match service.
func NewService(
	normalizerSvc normalizer.Service,
	searcher product.Searcher,
	lines LineStore,
	cfg config.MatchingConfig,
	recMetrics *metrics.ReconciliationMetrics,
	logg *logger.Logger,
) (Service, error) {
	if normalizerSvc == nil {
		return nil, fmt.Errorf("normalizer service required")
	}
	if searcher == nil {
		return nil, fmt.Errorf("candidate searcher required")
	}
	if lines == nil {
		return nil, fmt.Errorf("line store required")
	}
	return &service{
		normalizer: normalizerSvc,
		searcher:   searcher,
		lines:      lines,
		cfg:        cfg,
		metrics:    recMetrics,
		logg:       logg,
	}, nil
}

// ResolvePending attempts an automatic mapping for every pending line. Lines already
// resolved (mapped, new_item, ignored) are never touched, so running the pass twice
// is harmless. Per-line failures are logged and skipped; the pass always finishes.
func (s *service) ResolvePending(ctx context.Context, restaurantID uuid.UUID, lines []models.ReceiptLineItem) (int, error) {
	if restaurantID == uuid.Nil {
		return 0, fmt.Errorf("restaurant id is required")
	}

	table := s.normalizer.LoadTable(ctx, restaurantID)

	mapped := 0
	for i := range lines {
		line := &lines[i]
		if line.MappingStatus != enums.MappingStatusPending {
			continue
		}

		lineCtx := ctx
		if s.logg != nil {
			lineCtx = s.logg.WithLineItemID(ctx, line.ID.String())
		}

		best := s.bestCandidate(lineCtx, table, restaurantID, line.DisplayName())
		if best == nil || !s.accept(*best) {
			s.metrics.IncMatchOutcome("pending")
			continue
		}

		if err := s.applyMatch(lineCtx, table, line, *best); err != nil {
			if s.logg != nil {
				s.logg.Error(lineCtx, "auto-match write failed, leaving line pending", err)
			}
			s.metrics.IncMatchOutcome("pending")
			continue
		}
		s.metrics.IncMatchOutcome("mapped")
		mapped++
	}
	return mapped, nil
}

// bestCandidate searches every variant and keeps the strictly strongest candidate:
// higher match strength wins, then higher combined score. Ties keep the earlier
// variant's candidate, so the raw text gets first claim.
func (s *service) bestCandidate(ctx context.Context, table *normalizer.Table, restaurantID uuid.UUID, text string) *product.Candidate {
	var best *product.Candidate

	for _, variant := range s.normalizer.Variants(table, text) {
		candidates, err := s.searcher.SearchCandidates(ctx, product.SearchParams{
			RestaurantID:      restaurantID,
			Variant:           variant,
			Threshold:         s.cfg.SearchThreshold,
			Limit:             s.cfg.SearchLimit,
			VerySimilarCutoff: s.cfg.VerySimilarThreshold,
		})
		if err != nil {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "variant", variant), "candidate search failed, skipping variant")
			}
			continue
		}
		for j := range candidates {
			if best == nil || stronger(candidates[j], *best) {
				candidate := candidates[j]
				best = &candidate
			}
		}
	}
	return best
}

func stronger(a, b product.Candidate) bool {
	if a.MatchType.Strength() != b.MatchType.Strength() {
		return a.MatchType.Strength() > b.MatchType.Strength()
	}
	return a.CombinedScore > b.CombinedScore
}

// accept applies the decision policy: any non-fuzzy match type is trusted outright,
// a fuzzy match needs a combined score above the configured floor.
func (s *service) accept(candidate product.Candidate) bool {
	if candidate.MatchType.Strength() > 0 {
		return true
	}
	return candidate.CombinedScore > s.cfg.AcceptScore
}

func (s *service) applyMatch(ctx context.Context, table *normalizer.Table, line *models.ReceiptLineItem, best product.Candidate) error {
	updated, err := s.lines.UpdateLineItem(ctx, line.ID, map[string]any{
		"matched_product_id": best.Product.ID,
		"confidence_score":   best.CombinedScore,
		"mapping_status":     enums.MappingStatusMapped,
	})
	if err != nil {
		return err
	}
	*line = *updated

	// receipt_exact means the table already knows this text; anything weaker is worth
	// remembering for the next receipt
	if best.MatchType != enums.MatchTypeReceiptExact {
		if err := s.normalizer.Learn(ctx, table, line.DisplayName(), best.Product.Name); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "abbreviation learn failed after match")
		}
	}
	return nil
}
