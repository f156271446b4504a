package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry tracked in inventory. ReceiptItemNames accumulates every
// raw or parsed receipt text ever mapped to this product; it is deduplicated and never
// shrinks, serving as both a matching hint and an audit trail.
type Product struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID     uuid.UUID       `gorm:"column:restaurant_id;type:uuid;not null"`
	Name             string          `gorm:"column:name;not null"`
	SKU              string          `gorm:"column:sku;not null"`
	CurrentStock     float64         `gorm:"column:current_stock;not null;default:0"`
	CostPerUnit      decimal.Decimal `gorm:"column:cost_per_unit;type:numeric(12,4);not null;default:0"`
	UOMPurchase      string          `gorm:"column:uom_purchase;not null;default:'each'"`
	PackageType      *string         `gorm:"column:package_type"`
	SizeValue        *float64        `gorm:"column:size_value;type:numeric(12,4)"`
	SizeUnit         *string         `gorm:"column:size_unit"`
	SupplierID       *uuid.UUID      `gorm:"column:supplier_id;type:uuid"`
	ReceiptItemNames pq.StringArray  `gorm:"column:receipt_item_names;type:text[];not null;default:ARRAY[]::text[]"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// HasReceiptItemName reports whether name is already recorded, case-insensitively
// matching the stored history.
func (p *Product) HasReceiptItemName(name string) bool {
	for _, existing := range p.ReceiptItemNames {
		if equalFoldTrimmed(existing, name) {
			return true
		}
	}
	return false
}

// AddReceiptItemName unions name into the history. Returns true when the set grew.
func (p *Product) AddReceiptItemName(name string) bool {
	if name == "" || p.HasReceiptItemName(name) {
		return false
	}
	p.ReceiptItemNames = append(p.ReceiptItemNames, name)
	return true
}
