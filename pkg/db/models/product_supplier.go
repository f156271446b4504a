package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSupplier aggregates purchase history between a product and a supplier. One row
// per pair, upserted on every committed purchase.
type ProductSupplier struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID        uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_product_supplier"`
	SupplierID       uuid.UUID       `gorm:"column:supplier_id;type:uuid;not null;uniqueIndex:idx_product_supplier"`
	LastCost         decimal.Decimal `gorm:"column:last_cost;type:numeric(12,4);not null"`
	LastPurchaseDate time.Time       `gorm:"column:last_purchase_date;not null"`
	LastQuantity     float64         `gorm:"column:last_quantity;type:numeric(12,4);not null"`
	AverageCost      decimal.Decimal `gorm:"column:average_cost;type:numeric(12,4);not null"`
	PurchaseCount    int             `gorm:"column:purchase_count;not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
