package receipts

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mesaops/mesa-backend/pkg/db/models"
	"github.com/mesaops/mesa-backend/pkg/enums"
)

// Repository manages persistence for receipt imports and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateReceipt(ctx context.Context, receipt *models.ReceiptImport) error
	FindReceipt(ctx context.Context, id uuid.UUID) (*models.ReceiptImport, error)
	ListLineItems(ctx context.Context, receiptID uuid.UUID) ([]models.ReceiptLineItem, error)
	FindLineItem(ctx context.Context, id uuid.UUID) (*models.ReceiptLineItem, error)
	UpdateLineItem(ctx context.Context, lineItemID uuid.UUID, updates map[string]any) (*models.ReceiptLineItem, error)
	FinalizeReceipt(ctx context.Context, receiptID uuid.UUID, importedTotal decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a receipt repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateReceipt(ctx context.Context, receipt *models.ReceiptImport) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *repository) FindReceipt(ctx context.Context, id uuid.UUID) (*models.ReceiptImport, error) {
	var receipt models.ReceiptImport
	if err := r.db.WithContext(ctx).First(&receipt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *repository) ListLineItems(ctx context.Context, receiptID uuid.UUID) ([]models.ReceiptLineItem, error) {
	var lines []models.ReceiptLineItem
	if err := r.db.WithContext(ctx).
		Where("receipt_id = ?", receiptID).
		Order("created_at ASC, id ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) FindLineItem(ctx context.Context, id uuid.UUID) (*models.ReceiptLineItem, error) {
	var line models.ReceiptLineItem
	if err := r.db.WithContext(ctx).First(&line, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdateLineItem applies the column updates and returns the row as persisted, so
// callers always observe the write they just made.
func (r *repository) UpdateLineItem(ctx context.Context, lineItemID uuid.UUID, updates map[string]any) (*models.ReceiptLineItem, error) {
	if err := r.db.WithContext(ctx).
		Model(&models.ReceiptLineItem{}).
		Where("id = ?", lineItemID).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.FindLineItem(ctx, lineItemID)
}

func (r *repository) FinalizeReceipt(ctx context.Context, receiptID uuid.UUID, importedTotal decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.ReceiptImport{}).
		Where("id = ?", receiptID).
		Updates(map[string]any{
			"status":         enums.ReceiptStatusImported,
			"imported_total": importedTotal,
		}).Error
}
