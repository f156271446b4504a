package receipts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mesaops/mesa-backend/internal/matching"
	"github.com/mesaops/mesa-backend/internal/normalizer"
	"github.com/mesaops/mesa-backend/pkg/db/models"
	"github.com/mesaops/mesa-backend/pkg/enums"
	pkgerrors "github.com/mesaops/mesa-backend/pkg/errors"
	"github.com/mesaops/mesa-backend/pkg/logger"
)

// ProductFinder is the slice of the product repository the receipt service reads.
type ProductFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
}

// Service exposes the receipt review surface: ingesting parsed receipts, listing
// lines with automatic matches applied, and persisting human corrections.
type Service interface {
	CreateReceipt(ctx context.Context, input CreateReceiptInput) (*models.ReceiptImport, error)
	GetReceipt(ctx context.Context, receiptID uuid.UUID) (*models.ReceiptImport, error)
	ListLineItems(ctx context.Context, receiptID uuid.UUID) ([]LineItemView, error)
	UpdateMapping(ctx context.Context, lineItemID uuid.UUID, input UpdateMappingInput) (*LineItemView, error)
}

type service struct {
	repo       Repository
	matcher    matching.Service
	products   ProductFinder
	normalizer normalizer.Service
	logg       *logger.Logger
}

// NewService wires the receipt service.
func NewService(
	repo Repository,
	matcher matching.Service,
	products ProductFinder,
	normalizerSvc normalizer.Service,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("receipt repository required")
	}
	if matcher == nil {
		return nil, fmt.Errorf("matching service required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if normalizerSvc == nil {
		return nil, fmt.Errorf("normalizer service required")
	}
	return &service{
		repo:       repo,
		matcher:    matcher,
		products:   products,
		normalizer: normalizerSvc,
		logg:       logg,
	}, nil
}

// CreateLineInput is one parsed receipt row as delivered by the upstream extractor.
type CreateLineInput struct {
	RawText         string
	ParsedName      *string
	ParsedQuantity  *float64
	ParsedUnit      *string
	ParsedPrice     *decimal.Decimal
	ParsedUnitPrice *decimal.Decimal
	ParsedSKU       *string
	PackageType     *string
	SizeValue       *float64
	SizeUnit        *string
}

// CreateReceiptInput describes one uploaded receipt and its parsed lines.
type CreateReceiptInput struct {
	RestaurantID uuid.UUID
	VendorName   string
	SupplierID   *uuid.UUID
	PurchaseDate time.Time
	Lines        []CreateLineInput
}

func (s *service) CreateReceipt(ctx context.Context, input CreateReceiptInput) (*models.ReceiptImport, error) {
	if input.RestaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id is required")
	}
	if input.VendorName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor name is required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a receipt needs at least one line item")
	}
	if input.PurchaseDate.IsZero() {
		input.PurchaseDate = time.Now().UTC()
	}

	receipt := &models.ReceiptImport{
		RestaurantID: input.RestaurantID,
		VendorName:   input.VendorName,
		SupplierID:   input.SupplierID,
		PurchaseDate: input.PurchaseDate,
		Status:       enums.ReceiptStatusUploaded,
	}
	for i, line := range input.Lines {
		if line.RawText == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d has no raw text", i+1))
		}
		receipt.LineItems = append(receipt.LineItems, models.ReceiptLineItem{
			RawText:         line.RawText,
			ParsedName:      line.ParsedName,
			ParsedQuantity:  line.ParsedQuantity,
			ParsedUnit:      line.ParsedUnit,
			ParsedPrice:     line.ParsedPrice,
			ParsedUnitPrice: line.ParsedUnitPrice,
			ParsedSKU:       line.ParsedSKU,
			PackageType:     line.PackageType,
			SizeValue:       line.SizeValue,
			SizeUnit:        line.SizeUnit,
			MappingStatus:   enums.MappingStatusPending,
		})
	}

	if err := s.repo.CreateReceipt(ctx, receipt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting receipt")
	}
	return receipt, nil
}

func (s *service) GetReceipt(ctx context.Context, receiptID uuid.UUID) (*models.ReceiptImport, error) {
	receipt, err := s.repo.FindReceipt(ctx, receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading receipt")
	}
	return receipt, nil
}

// ListLineItems runs the auto-match pass over any still-pending lines, then returns
// every line re-read from the store and enriched with its matched product.
func (s *service) ListLineItems(ctx context.Context, receiptID uuid.UUID) ([]LineItemView, error) {
	receipt, err := s.GetReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}

	ctx = s.withReceiptLog(ctx, receipt)

	lines, err := s.repo.ListLineItems(ctx, receiptID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing line items")
	}

	if mapped, err := s.matcher.ResolvePending(ctx, receipt.RestaurantID, lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "auto-match pass")
	} else if mapped > 0 {
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "mapped", mapped), "auto-match pass resolved lines")
		}
		// re-read so the response reflects exactly what was persisted
		if lines, err = s.repo.ListLineItems(ctx, receiptID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-reading line items")
		}
	}

	return s.enrichAll(ctx, lines)
}

// UpdateMappingInput is a human correction for one line. MatchedProductID is required
// when Status is mapped and ignored otherwise.
type UpdateMappingInput struct {
	Status           enums.MappingStatus
	MatchedProductID *uuid.UUID
}

// UpdateMapping applies a reviewer's decision to one line. Lines of an already
// imported receipt are frozen. Mapping to a product records the receipt text as a
// learned abbreviation so the next receipt auto-matches.
func (s *service) UpdateMapping(ctx context.Context, lineItemID uuid.UUID, input UpdateMappingInput) (*LineItemView, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid mapping status %q", input.Status))
	}

	line, err := s.repo.FindLineItem(ctx, lineItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading line item")
	}

	receipt, err := s.GetReceipt(ctx, line.ReceiptID)
	if err != nil {
		return nil, err
	}
	if receipt.Status == enums.ReceiptStatusImported {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "receipt is already imported, its line items are frozen")
	}

	ctx = s.withReceiptLog(ctx, receipt)
	if s.logg != nil {
		ctx = s.logg.WithLineItemID(ctx, lineItemID.String())
	}

	updates := map[string]any{"mapping_status": input.Status}
	var matched *models.Product

	if input.Status == enums.MappingStatusMapped {
		if input.MatchedProductID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "mapped status requires a product id")
		}
		matched, err = s.products.FindByID(ctx, *input.MatchedProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "matched product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading matched product")
		}
		if matched.RestaurantID != receipt.RestaurantID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product belongs to a different restaurant")
		}
		updates["matched_product_id"] = matched.ID
		// a human said so
		updates["confidence_score"] = 1.0
	} else {
		updates["matched_product_id"] = nil
		updates["confidence_score"] = nil
	}

	updated, err := s.repo.UpdateLineItem(ctx, lineItemID, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating line item")
	}

	if matched != nil {
		table := s.normalizer.LoadTable(ctx, receipt.RestaurantID)
		if err := s.normalizer.Learn(ctx, table, updated.DisplayName(), matched.Name); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "abbreviation learn failed after manual mapping")
		}
	}

	view := Enrich(*updated, matched)
	return &view, nil
}

func (s *service) enrichAll(ctx context.Context, lines []models.ReceiptLineItem) ([]LineItemView, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if line.MatchedProductID != nil {
			ids = append(ids, *line.MatchedProductID)
		}
	}

	productsByID, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading matched products")
	}

	views := make([]LineItemView, 0, len(lines))
	for _, line := range lines {
		var matched *models.Product
		if line.MatchedProductID != nil {
			matched = productsByID[*line.MatchedProductID]
		}
		views = append(views, Enrich(line, matched))
	}
	return views, nil
}

func (s *service) withReceiptLog(ctx context.Context, receipt *models.ReceiptImport) context.Context {
	if s.logg == nil {
		return ctx
	}
	ctx = s.logg.WithRestaurantID(ctx, receipt.RestaurantID.String())
	return s.logg.WithReceiptID(ctx, receipt.ID.String())
}
