package receipts

import (
	"github.com/mesaops/mesa-backend/pkg/db/models"
)

// MatchedProductSummary is the slice of a catalog product a review surface needs
// alongside the line it matched.
type MatchedProductSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	SKU         string  `json:"sku"`
	CostPerUnit string  `json:"cost_per_unit"`
	UOMPurchase string  `json:"uom_purchase"`
	PackageType *string `json:"package_type,omitempty"`
}

// LineItemView is a line item enriched with its matched product and suggested
// packaging fields. Suggestions never overwrite the line's own parsed values; they
// are present only where the line itself has none.
type LineItemView struct {
	models.ReceiptLineItem
	MatchedProduct       *MatchedProductSummary `json:"matched_product,omitempty"`
	SuggestedPackageType *string                `json:"suggested_package_type,omitempty"`
	SuggestedSizeValue   *float64               `json:"suggested_size_value,omitempty"`
	SuggestedSizeUnit    *string                `json:"suggested_size_unit,omitempty"`
}

// Enrich builds the view for one line. product may be nil when the line has no match
// or the referenced product has since been deleted; the line is then returned as-is.
func Enrich(line models.ReceiptLineItem, product *models.Product) LineItemView {
	view := LineItemView{ReceiptLineItem: line}
	if product == nil {
		return view
	}

	view.MatchedProduct = &MatchedProductSummary{
		ID:          product.ID.String(),
		Name:        product.Name,
		SKU:         product.SKU,
		CostPerUnit: product.CostPerUnit.String(),
		UOMPurchase: product.UOMPurchase,
		PackageType: product.PackageType,
	}

	if line.PackageType == nil && product.PackageType != nil {
		view.SuggestedPackageType = product.PackageType
	}
	if line.SizeValue == nil && product.SizeValue != nil {
		view.SuggestedSizeValue = product.SizeValue
	}
	if line.SizeUnit == nil && product.SizeUnit != nil {
		view.SuggestedSizeUnit = product.SizeUnit
	}
	return view
}
