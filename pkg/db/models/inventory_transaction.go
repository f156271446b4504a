package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesaops/mesa-backend/pkg/enums"
)

// InventoryTransaction records an immutable stock/cost delta. Rows are append-only;
// ReferenceID is unique per receipt+line so a re-run cannot double-post a purchase.
type InventoryTransaction struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID      uuid.UUID             `gorm:"column:restaurant_id;type:uuid;not null"`
	ProductID         uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	Type              enums.TransactionType `gorm:"column:type;type:inventory_transaction_type_enum;not null"`
	Quantity          float64               `gorm:"column:quantity;type:numeric(12,4);not null"`
	UnitCost          decimal.Decimal       `gorm:"column:unit_cost;type:numeric(12,4);not null"`
	TotalCost         decimal.Decimal       `gorm:"column:total_cost;type:numeric(12,2);not null"`
	Reason            string                `gorm:"column:reason;not null"`
	ReferenceID       string                `gorm:"column:reference_id;not null;uniqueIndex"`
	ReceiptLineItemID *uuid.UUID            `gorm:"column:receipt_line_item_id;type:uuid"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
}
