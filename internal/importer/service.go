package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mesaops/mesa-backend/internal/ledger"
	"github.com/mesaops/mesa-backend/internal/receipts"
	"github.com/mesaops/mesa-backend/internal/suppliers"
	"github.com/mesaops/mesa-backend/pkg/db/models"
	"github.com/mesaops/mesa-backend/pkg/enums"
	pkgerrors "github.com/mesaops/mesa-backend/pkg/errors"
	"github.com/mesaops/mesa-backend/pkg/logger"
	"github.com/mesaops/mesa-backend/pkg/metrics"
)

// ProductStore is the slice of the product repository the committer writes through.
type ProductStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
}

// Service commits a reviewed receipt: every mapped or new_item line becomes stock,
// cost and ledger effects. Pending and ignored lines are left alone.
type Service interface {
	Commit(ctx context.Context, receiptID uuid.UUID) (*CommitResult, error)
}

// LineResult reports what happened to one line during a commit.
type LineResult struct {
	LineItemID uuid.UUID           `json:"line_item_id"`
	Status     enums.MappingStatus `json:"mapping_status"`
	ProductID  *uuid.UUID          `json:"product_id,omitempty"`
	Committed  bool                `json:"committed"`
	Skipped    bool                `json:"skipped"`
	Error      string              `json:"error,omitempty"`
}

// CommitResult is the outcome of one bulk commit. Warnings carries non-fatal
// integrity problems (a finalize failure, learn failures); a caller that sees
// Finalized false with successes should reconcile by hand.
type CommitResult struct {
	ReceiptID      uuid.UUID       `json:"receipt_id"`
	Lines          []LineResult    `json:"lines"`
	SucceededCount int             `json:"succeeded_count"`
	FailedCount    int             `json:"failed_count"`
	SkippedCount   int             `json:"skipped_count"`
	ImportedTotal  decimal.Decimal `json:"imported_total"`
	Finalized      bool            `json:"finalized"`
	Warnings       error           `json:"-"`
}

type service struct {
	receipts  receipts.Repository
	products  ProductStore
	ledger    ledger.Service
	suppliers suppliers.Service
	metrics   *metrics.ReconciliationMetrics
	logg      *logger.Logger
}

// NewService wires the bulk committer.
func NewService(
	receiptRepo receipts.Repository,
	products ProductStore,
	ledgerSvc ledger.Service,
	supplierSvc suppliers.Service,
	recMetrics *metrics.ReconciliationMetrics,
	logg *logger.Logger,
) (Service, error) {
	if receiptRepo == nil {
		return nil, fmt.Errorf("receipt repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product store required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if supplierSvc == nil {
		return nil, fmt.Errorf("supplier service required")
	}
	return &service{
		receipts:  receiptRepo,
		products:  products,
		ledger:    ledgerSvc,
		suppliers: supplierSvc,
		metrics:   recMetrics,
		logg:      logg,
	}, nil
}

// Commit applies every resolved line of the receipt to inventory. Each line is
// processed independently: one bad line is recorded as a failure and the rest still
// commit. New-item lines with the same normalized name share one created product.
func (s *service) Commit(ctx context.Context, receiptID uuid.UUID) (*CommitResult, error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveCommitDuration(time.Since(started))
	}()

	receipt, err := s.receipts.FindReceipt(ctx, receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading receipt")
	}
	if receipt.Status == enums.ReceiptStatusImported {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "receipt is already imported")
	}

	if s.logg != nil {
		ctx = s.logg.WithRestaurantID(ctx, receipt.RestaurantID.String())
		ctx = s.logg.WithReceiptID(ctx, receipt.ID.String())
	}

	lines, err := s.receipts.ListLineItems(ctx, receiptID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing line items")
	}

	result := &CommitResult{ReceiptID: receiptID, ImportedTotal: decimal.Zero}
	// products created during this pass, keyed by normalized display name, so two
	// "CHKN BRST 5LB" lines on one receipt make one product with the summed stock
	createdByName := map[string]*models.Product{}
	retrySkipped := map[uuid.UUID]bool{}

	for i := range lines {
		line := &lines[i]
		lineCtx := ctx
		if s.logg != nil {
			lineCtx = s.logg.WithLineItemID(ctx, line.ID.String())
		}

		switch line.MappingStatus {
		case enums.MappingStatusMapped, enums.MappingStatusNewItem:
			if s.alreadyCommitted(lineCtx, receipt.ID, line) {
				retrySkipped[line.ID] = true
				result.Lines = append(result.Lines, LineResult{
					LineItemID: line.ID,
					Status:     line.MappingStatus,
					ProductID:  line.MatchedProductID,
					Skipped:    true,
				})
				result.SkippedCount++
				continue
			}
			if line.MappingStatus == enums.MappingStatusMapped {
				s.commitLine(lineCtx, receipt, line, result, s.commitMapped)
			} else {
				s.commitLine(lineCtx, receipt, line, result, func(ctx context.Context, receipt *models.ReceiptImport, line *models.ReceiptLineItem) (*models.Product, decimal.Decimal, error) {
					return s.commitNewItem(ctx, receipt, line, createdByName)
				})
			}
		default:
			result.Lines = append(result.Lines, LineResult{
				LineItemID: line.ID,
				Status:     line.MappingStatus,
				Skipped:    true,
			})
			result.SkippedCount++
		}
	}

	// lines skipped on a retry were already paid for on an earlier attempt; their
	// ledgered totals still belong in the finalized receipt total
	if len(retrySkipped) > 0 {
		prior, err := s.ledger.ListByReceipt(ctx, receiptID)
		if err != nil {
			result.Warnings = multierr.Append(result.Warnings,
				fmt.Errorf("recovering totals for already committed lines: %w", err))
		} else {
			for i := range prior {
				tx := &prior[i]
				if tx.ReceiptLineItemID != nil && retrySkipped[*tx.ReceiptLineItemID] {
					result.ImportedTotal = result.ImportedTotal.Add(tx.TotalCost)
				}
			}
		}
	}

	result.Finalized = true
	if err := s.receipts.FinalizeReceipt(ctx, receiptID, result.ImportedTotal); err != nil {
		result.Finalized = false
		result.Warnings = multierr.Append(result.Warnings,
			fmt.Errorf("receipt finalize failed, stock effects are already applied: %w", err))
		if s.logg != nil {
			s.logg.Error(ctx, "receipt finalize failed after committing lines", err)
		}
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"succeeded": result.SucceededCount,
			"failed":    result.FailedCount,
			"skipped":   result.SkippedCount,
			"total":     result.ImportedTotal.String(),
		}), "receipt commit finished")
	}
	return result, nil
}

// alreadyCommitted reports whether an earlier commit attempt already put this line on
// the ledger. A retry after a failed finalize must not double-apply stock or recreate
// products.
func (s *service) alreadyCommitted(ctx context.Context, receiptID uuid.UUID, line *models.ReceiptLineItem) bool {
	done, err := s.ledger.HasPurchase(ctx, receiptID, line.ID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "ledger lookup failed, attempting line commit anyway")
		}
		return false
	}
	return done
}

type lineCommitFn func(ctx context.Context, receipt *models.ReceiptImport, line *models.ReceiptLineItem) (*models.Product, decimal.Decimal, error)

func (s *service) commitLine(ctx context.Context, receipt *models.ReceiptImport, line *models.ReceiptLineItem, result *CommitResult, commit lineCommitFn) {
	product, lineTotal, err := commit(ctx, receipt, line)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "line commit failed, continuing with remaining lines", err)
		}
		s.metrics.IncCommitLine("failure")
		result.Lines = append(result.Lines, LineResult{
			LineItemID: line.ID,
			Status:     line.MappingStatus,
			Error:      err.Error(),
		})
		result.FailedCount++
		return
	}

	s.metrics.IncCommitLine("success")
	lineResult := LineResult{
		LineItemID: line.ID,
		Status:     line.MappingStatus,
		Committed:  true,
	}
	if product != nil {
		lineResult.ProductID = &product.ID
	}
	result.Lines = append(result.Lines, lineResult)
	result.SucceededCount++
	result.ImportedTotal = result.ImportedTotal.Add(lineTotal)
}

func (s *service) commitMapped(ctx context.Context, receipt *models.ReceiptImport, line *models.ReceiptLineItem) (*models.Product, decimal.Decimal, error) {
	if line.MatchedProductID == nil {
		return nil, decimal.Zero, fmt.Errorf("mapped line has no matched product")
	}

	product, err := s.products.FindByID(ctx, *line.MatchedProductID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("loading matched product: %w", err)
	}

	quantity := lineQuantity(line)
	unitCost := lineUnitCost(line, product.CostPerUnit)

	if _, err := s.ledger.RecordPurchase(ctx, ledger.RecordPurchaseInput{
		RestaurantID: receipt.RestaurantID,
		ProductID:    product.ID,
		ReceiptID:    receipt.ID,
		LineItemID:   line.ID,
		Quantity:     quantity,
		UnitCost:     unitCost,
		Reason:       "receipt import from " + receipt.VendorName,
	}); err != nil {
		return nil, decimal.Zero, fmt.Errorf("recording purchase: %w", err)
	}

	product.CurrentStock += quantity
	product.CostPerUnit = unitCost
	product.AddReceiptItemName(line.DisplayName())
	if product.SupplierID == nil && receipt.SupplierID != nil {
		product.SupplierID = receipt.SupplierID
	}
	if _, err := s.products.UpdateProduct(ctx, product); err != nil {
		return nil, decimal.Zero, fmt.Errorf("updating product: %w", err)
	}

	s.recordSupplierHistory(ctx, receipt, product, unitCost, quantity)

	return product, unitCost.Mul(decimal.NewFromFloat(quantity)).Round(2), nil
}

func (s *service) commitNewItem(ctx context.Context, receipt *models.ReceiptImport, line *models.ReceiptLineItem, createdByName map[string]*models.Product) (*models.Product, decimal.Decimal, error) {
	quantity := lineQuantity(line)
	key := normalizedName(line.DisplayName())

	product, alreadyCreated := createdByName[key]
	if !alreadyCreated && line.MatchedProductID != nil {
		// an earlier commit attempt already created this product and linked the line
		existing, err := s.products.FindByID(ctx, *line.MatchedProductID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("loading product from earlier attempt: %w", err)
		}
		product = existing
		createdByName[key] = existing
		alreadyCreated = true
	}

	var unitCost decimal.Decimal
	if alreadyCreated {
		// repeat occurrence: stock increment and ledger row only, the first
		// occurrence owns the product's cost
		unitCost = lineUnitCost(line, product.CostPerUnit)
		product.CurrentStock += quantity
		product.AddReceiptItemName(line.DisplayName())
		if _, err := s.products.UpdateProduct(ctx, product); err != nil {
			return nil, decimal.Zero, fmt.Errorf("updating deduplicated product: %w", err)
		}
	} else {
		unitCost = lineUnitCost(line, decimal.Zero)
		product = &models.Product{
			RestaurantID:     receipt.RestaurantID,
			Name:             line.DisplayName(),
			SKU:              lineSKU(line),
			CurrentStock:     quantity,
			CostPerUnit:      unitCost,
			UOMPurchase:      lineUOM(line),
			PackageType:      line.PackageType,
			SizeValue:        line.SizeValue,
			SizeUnit:         line.SizeUnit,
			SupplierID:       receipt.SupplierID,
			ReceiptItemNames: []string{line.DisplayName()},
		}
		if _, err := s.products.CreateProduct(ctx, product); err != nil {
			return nil, decimal.Zero, fmt.Errorf("creating product: %w", err)
		}
		createdByName[key] = product
	}

	if _, err := s.ledger.RecordPurchase(ctx, ledger.RecordPurchaseInput{
		RestaurantID: receipt.RestaurantID,
		ProductID:    product.ID,
		ReceiptID:    receipt.ID,
		LineItemID:   line.ID,
		Quantity:     quantity,
		UnitCost:     unitCost,
		Reason:       "new item from " + receipt.VendorName + " receipt",
	}); err != nil {
		return nil, decimal.Zero, fmt.Errorf("recording purchase: %w", err)
	}

	// link the line to the product it produced so the review surface can show it
	if _, err := s.receipts.UpdateLineItem(ctx, line.ID, map[string]any{
		"matched_product_id": product.ID,
	}); err != nil {
		return nil, decimal.Zero, fmt.Errorf("linking line to created product: %w", err)
	}

	s.recordSupplierHistory(ctx, receipt, product, unitCost, quantity)

	return product, unitCost.Mul(decimal.NewFromFloat(quantity)).Round(2), nil
}

// recordSupplierHistory is best-effort: a failed history upsert never fails the line,
// the purchase itself is already on the ledger.
func (s *service) recordSupplierHistory(ctx context.Context, receipt *models.ReceiptImport, product *models.Product, unitCost decimal.Decimal, quantity float64) {
	if receipt.SupplierID == nil {
		return
	}
	if _, err := s.suppliers.RecordPurchase(ctx, suppliers.RecordPurchaseInput{
		ProductID:    product.ID,
		SupplierID:   *receipt.SupplierID,
		UnitCost:     unitCost,
		Quantity:     quantity,
		PurchaseDate: receipt.PurchaseDate,
	}); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "supplier history upsert failed")
	}
}

func lineQuantity(line *models.ReceiptLineItem) float64 {
	if line.ParsedQuantity != nil && *line.ParsedQuantity > 0 {
		return *line.ParsedQuantity
	}
	return 1
}

// lineUnitCost prefers the parsed per-unit price, then derives one from the line
// total, then falls back to the product's current cost.
func lineUnitCost(line *models.ReceiptLineItem, fallback decimal.Decimal) decimal.Decimal {
	if line.ParsedUnitPrice != nil && !line.ParsedUnitPrice.IsNegative() {
		return *line.ParsedUnitPrice
	}
	if line.ParsedPrice != nil && !line.ParsedPrice.IsNegative() {
		quantity := lineQuantity(line)
		return line.ParsedPrice.Div(decimal.NewFromFloat(quantity)).Round(4)
	}
	return fallback
}

func lineSKU(line *models.ReceiptLineItem) string {
	if line.ParsedSKU != nil && *line.ParsedSKU != "" {
		return *line.ParsedSKU
	}
	return "RCPT-" + strings.ToUpper(uuid.NewString()[:8])
}

func lineUOM(line *models.ReceiptLineItem) string {
	if line.ParsedUnit != nil && *line.ParsedUnit != "" {
		return *line.ParsedUnit
	}
	return "each"
}

func normalizedName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
