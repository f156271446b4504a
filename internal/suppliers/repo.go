package suppliers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaops/mesa-backend/pkg/db/models"
)

// Repository manages persistence for suppliers and product/supplier history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	FindByNormalizedName(ctx context.Context, restaurantID uuid.UUID, name string) (*models.Supplier, error)
	CreateSupplier(ctx context.Context, supplier *models.Supplier) error
	FindHistory(ctx context.Context, productID, supplierID uuid.UUID) (*models.ProductSupplier, error)
	SaveHistory(ctx context.Context, history *models.ProductSupplier) error
	ListHistoryByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductSupplier, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a supplier repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) FindByNormalizedName(ctx context.Context, restaurantID uuid.UUID, name string) (*models.Supplier, error) {
	var supplier models.Supplier
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND lower(name) = lower(?)", restaurantID, name).
		First(&supplier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *repository) FindHistory(ctx context.Context, productID, supplierID uuid.UUID) (*models.ProductSupplier, error) {
	var history models.ProductSupplier
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND supplier_id = ?", productID, supplierID).
		First(&history).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &history, nil
}

func (r *repository) SaveHistory(ctx context.Context, history *models.ProductSupplier) error {
	return r.db.WithContext(ctx).Save(history).Error
}

func (r *repository) ListHistoryByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductSupplier, error) {
	var rows []models.ProductSupplier
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
