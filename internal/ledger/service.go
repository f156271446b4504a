package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesaops/mesa-backend/pkg/db/models"
	"github.com/mesaops/mesa-backend/pkg/enums"
)

// Service defines operations that record inventory movements. Transactions are
// append-only; corrections are posted as new adjustment rows, never edits.
type Service interface {
	WithTx(tx Repository) Service
	RecordPurchase(ctx context.Context, input RecordPurchaseInput) (*models.InventoryTransaction, error)
	HasPurchase(ctx context.Context, receiptID, lineItemID uuid.UUID) (bool, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.InventoryTransaction, error)
	ListByReceipt(ctx context.Context, receiptID uuid.UUID) ([]models.InventoryTransaction, error)
}

type service struct {
	repo Repository
}

// RecordPurchaseInput captures the immutable data a purchase transaction requires.
type RecordPurchaseInput struct {
	RestaurantID uuid.UUID
	ProductID    uuid.UUID
	ReceiptID    uuid.UUID
	LineItemID   uuid.UUID
	Quantity     float64
	UnitCost     decimal.Decimal
	Reason       string
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx Repository) Service {
	if tx == nil {
		return s
	}
	return &service{repo: tx}
}

// PurchaseReference builds the unique reference for a receipt line purchase.
func PurchaseReference(receiptID, lineItemID uuid.UUID) string {
	return fmt.Sprintf("receipt:%s:line:%s", receiptID, lineItemID)
}

func (s *service) RecordPurchase(ctx context.Context, input RecordPurchaseInput) (*models.InventoryTransaction, error) {
	if input.RestaurantID == uuid.Nil {
		return nil, fmt.Errorf("restaurant id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, fmt.Errorf("product id is required")
	}
	if input.ReceiptID == uuid.Nil {
		return nil, fmt.Errorf("receipt id is required")
	}
	if input.LineItemID == uuid.Nil {
		return nil, fmt.Errorf("line item id is required")
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %v", input.Quantity)
	}
	if input.UnitCost.IsNegative() {
		return nil, fmt.Errorf("unit cost cannot be negative, got %s", input.UnitCost)
	}

	lineItemID := input.LineItemID
	transaction := &models.InventoryTransaction{
		RestaurantID:      input.RestaurantID,
		ProductID:         input.ProductID,
		Type:              enums.TransactionTypePurchase,
		Quantity:          input.Quantity,
		UnitCost:          input.UnitCost,
		TotalCost:         input.UnitCost.Mul(decimal.NewFromFloat(input.Quantity)).Round(2),
		Reason:            input.Reason,
		ReferenceID:       PurchaseReference(input.ReceiptID, input.LineItemID),
		ReceiptLineItemID: &lineItemID,
	}

	if err := s.repo.Create(ctx, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *service) HasPurchase(ctx context.Context, receiptID, lineItemID uuid.UUID) (bool, error) {
	if receiptID == uuid.Nil || lineItemID == uuid.Nil {
		return false, fmt.Errorf("receipt id and line item id are required")
	}
	return s.repo.ExistsByReference(ctx, PurchaseReference(receiptID, lineItemID))
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.InventoryTransaction, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("product id is required")
	}
	return s.repo.ListByProduct(ctx, productID)
}

func (s *service) ListByReceipt(ctx context.Context, receiptID uuid.UUID) ([]models.InventoryTransaction, error) {
	if receiptID == uuid.Nil {
		return nil, fmt.Errorf("receipt id is required")
	}
	return s.repo.ListByReceipt(ctx, receiptID)
}
