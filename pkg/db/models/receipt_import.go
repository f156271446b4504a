package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesaops/mesa-backend/pkg/enums"
)

// ReceiptImport is one uploaded receipt. Status moves from uploaded to imported when
// the bulk committer finalizes it; ImportedTotal is the sum of committed line amounts.
type ReceiptImport struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID  uuid.UUID           `gorm:"column:restaurant_id;type:uuid;not null"`
	VendorName    string              `gorm:"column:vendor_name;not null"`
	SupplierID    *uuid.UUID          `gorm:"column:supplier_id;type:uuid"`
	PurchaseDate  time.Time           `gorm:"column:purchase_date;not null"`
	Status        enums.ReceiptStatus `gorm:"column:status;type:receipt_status_enum;not null;default:'uploaded'"`
	ImportedTotal *decimal.Decimal    `gorm:"column:imported_total;type:numeric(12,2)"`
	LineItems     []ReceiptLineItem   `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
