package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaops/mesa-backend/pkg/db/models"
)

// Repository manages persistence for inventory transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, transaction *models.InventoryTransaction) error
	ExistsByReference(ctx context.Context, referenceID string) (bool, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.InventoryTransaction, error)
	ListByReceipt(ctx context.Context, receiptID uuid.UUID) ([]models.InventoryTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, transaction *models.InventoryTransaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *repository) ExistsByReference(ctx context.Context, referenceID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InventoryTransaction{}).
		Where("reference_id = ?", referenceID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.InventoryTransaction, error) {
	var transactions []models.InventoryTransaction
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *repository) ListByReceipt(ctx context.Context, receiptID uuid.UUID) ([]models.InventoryTransaction, error) {
	var transactions []models.InventoryTransaction
	if err := r.db.WithContext(ctx).
		Where("reference_id LIKE ?", "receipt:"+receiptID.String()+":%").
		Order("created_at ASC").
		Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}
