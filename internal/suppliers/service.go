package suppliers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesaops/mesa-backend/pkg/db/models"
)

// Service maintains per-supplier purchase history for catalog products.
type Service interface {
	WithTx(tx Repository) Service
	RecordPurchase(ctx context.Context, input RecordPurchaseInput) (*models.ProductSupplier, error)
	ListHistoryByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductSupplier, error)
}

type service struct {
	repo Repository
}

// RecordPurchaseInput describes one committed purchase to fold into the
// product/supplier aggregate.
type RecordPurchaseInput struct {
	ProductID    uuid.UUID
	SupplierID   uuid.UUID
	UnitCost     decimal.Decimal
	Quantity     float64
	PurchaseDate time.Time
}

// NewService wires a supplier history service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("supplier repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx Repository) Service {
	if tx == nil {
		return s
	}
	return &service{repo: tx}
}

// RecordPurchase upserts the product/supplier row. The first purchase seeds the
// average at the unit cost; later purchases fold in with a running average:
// (average * count + cost) / (count + 1).
func (s *service) RecordPurchase(ctx context.Context, input RecordPurchaseInput) (*models.ProductSupplier, error) {
	if input.ProductID == uuid.Nil {
		return nil, fmt.Errorf("product id is required")
	}
	if input.SupplierID == uuid.Nil {
		return nil, fmt.Errorf("supplier id is required")
	}
	if input.UnitCost.IsNegative() {
		return nil, fmt.Errorf("unit cost cannot be negative, got %s", input.UnitCost)
	}
	if input.PurchaseDate.IsZero() {
		input.PurchaseDate = time.Now().UTC()
	}

	history, err := s.repo.FindHistory(ctx, input.ProductID, input.SupplierID)
	if err != nil {
		return nil, err
	}

	if history == nil {
		history = &models.ProductSupplier{
			ProductID:     input.ProductID,
			SupplierID:    input.SupplierID,
			AverageCost:   input.UnitCost,
			PurchaseCount: 0,
		}
	} else {
		count := decimal.NewFromInt(int64(history.PurchaseCount))
		history.AverageCost = history.AverageCost.Mul(count).
			Add(input.UnitCost).
			Div(count.Add(decimal.NewFromInt(1))).
			Round(4)
	}

	history.LastCost = input.UnitCost
	history.LastPurchaseDate = input.PurchaseDate
	history.LastQuantity = input.Quantity
	history.PurchaseCount++

	if err := s.repo.SaveHistory(ctx, history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *service) ListHistoryByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductSupplier, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("product id is required")
	}
	return s.repo.ListHistoryByProduct(ctx, productID)
}
