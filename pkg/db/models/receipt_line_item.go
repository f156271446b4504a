package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesaops/mesa-backend/pkg/enums"
)

// ReceiptLineItem is one machine-parsed row of a receipt. MatchedProductID is a weak
// reference: a mapped line always points at an existing product, a pending line never
// does.
type ReceiptLineItem struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReceiptID        uuid.UUID           `gorm:"column:receipt_id;type:uuid;not null"`
	RawText          string              `gorm:"column:raw_text;not null"`
	ParsedName       *string             `gorm:"column:parsed_name"`
	ParsedQuantity   *float64            `gorm:"column:parsed_quantity;type:numeric(12,4)"`
	ParsedUnit       *string             `gorm:"column:parsed_unit"`
	ParsedPrice      *decimal.Decimal    `gorm:"column:parsed_price;type:numeric(12,2)"`
	ParsedUnitPrice  *decimal.Decimal    `gorm:"column:parsed_unit_price;type:numeric(12,4)"`
	ParsedSKU        *string             `gorm:"column:parsed_sku"`
	PackageType      *string             `gorm:"column:package_type"`
	SizeValue        *float64            `gorm:"column:size_value;type:numeric(12,4)"`
	SizeUnit         *string             `gorm:"column:size_unit"`
	MatchedProductID *uuid.UUID          `gorm:"column:matched_product_id;type:uuid"`
	ConfidenceScore  *float64            `gorm:"column:confidence_score;type:numeric(5,4)"`
	MappingStatus    enums.MappingStatus `gorm:"column:mapping_status;type:mapping_status_enum;not null;default:'pending'"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// DisplayName is the best human-readable name for the line: the parsed name when the
// upstream parser produced one, otherwise the raw receipt text.
func (li *ReceiptLineItem) DisplayName() string {
	if li.ParsedName != nil && *li.ParsedName != "" {
		return *li.ParsedName
	}
	return li.RawText
}
