package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/mesaops/mesa-backend/api/responses"
	"github.com/mesaops/mesa-backend/api/validators"
	"github.com/mesaops/mesa-backend/internal/importer"
	"github.com/mesaops/mesa-backend/internal/receipts"
	"github.com/mesaops/mesa-backend/pkg/enums"
	pkgerrors "github.com/mesaops/mesa-backend/pkg/errors"
	"github.com/mesaops/mesa-backend/pkg/logger"
)

type createReceiptLineRequest struct {
	RawText         string           `json:"raw_text" validate:"required"`
	ParsedName      *string          `json:"parsed_name,omitempty"`
	ParsedQuantity  *float64         `json:"parsed_quantity,omitempty" validate:"omitempty,gt=0"`
	ParsedUnit      *string          `json:"parsed_unit,omitempty"`
	ParsedPrice     *decimal.Decimal `json:"parsed_price,omitempty"`
	ParsedUnitPrice *decimal.Decimal `json:"parsed_unit_price,omitempty"`
	ParsedSKU       *string          `json:"parsed_sku,omitempty"`
	PackageType     *string          `json:"package_type,omitempty"`
	SizeValue       *float64         `json:"size_value,omitempty" validate:"omitempty,gt=0"`
	SizeUnit        *string          `json:"size_unit,omitempty"`
}

type createReceiptRequest struct {
	RestaurantID string                     `json:"restaurant_id" validate:"required,uuid"`
	VendorName   string                     `json:"vendor_name" validate:"required"`
	SupplierID   *string                    `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	PurchaseDate *time.Time                 `json:"purchase_date,omitempty"`
	Lines        []createReceiptLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (req createReceiptRequest) toInput() (receipts.CreateReceiptInput, error) {
	restaurantID, err := uuid.Parse(req.RestaurantID)
	if err != nil {
		return receipts.CreateReceiptInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restaurant id")
	}

	input := receipts.CreateReceiptInput{
		RestaurantID: restaurantID,
		VendorName:   req.VendorName,
	}
	if req.SupplierID != nil {
		supplierID, err := uuid.Parse(*req.SupplierID)
		if err != nil {
			return receipts.CreateReceiptInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier id")
		}
		input.SupplierID = &supplierID
	}
	if req.PurchaseDate != nil {
		input.PurchaseDate = *req.PurchaseDate
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, receipts.CreateLineInput{
			RawText:         line.RawText,
			ParsedName:      line.ParsedName,
			ParsedQuantity:  line.ParsedQuantity,
			ParsedUnit:      line.ParsedUnit,
			ParsedPrice:     line.ParsedPrice,
			ParsedUnitPrice: line.ParsedUnitPrice,
			ParsedSKU:       line.ParsedSKU,
			PackageType:     line.PackageType,
			SizeValue:       line.SizeValue,
			SizeUnit:        line.SizeUnit,
		})
	}
	return input, nil
}

// ReceiptCreate ingests one parsed receipt and its line items.
func ReceiptCreate(svc receipts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt service unavailable"))
			return
		}

		var payload createReceiptRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.CreateReceipt(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}

// ReceiptLineItems lists a receipt's lines with automatic matches applied and
// suggestions attached.
func ReceiptLineItems(svc receipts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt service unavailable"))
			return
		}

		receiptID, err := uuid.Parse(chi.URLParam(r, "receiptId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid receipt id"))
			return
		}

		views, err := svc.ListLineItems(r.Context(), receiptID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, views)
	}
}

type updateMappingRequest struct {
	MappingStatus    string  `json:"mapping_status" validate:"required,oneof=pending mapped new_item ignored"`
	MatchedProductID *string `json:"matched_product_id,omitempty" validate:"omitempty,uuid"`
}

// LineItemUpdateMapping applies a reviewer's correction to one line.
func LineItemUpdateMapping(svc receipts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "receipt service unavailable"))
			return
		}

		lineItemID, err := uuid.Parse(chi.URLParam(r, "lineItemId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line item id"))
			return
		}

		var payload updateMappingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := receipts.UpdateMappingInput{Status: enums.MappingStatus(payload.MappingStatus)}
		if payload.MatchedProductID != nil {
			productID, err := uuid.Parse(*payload.MatchedProductID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
				return
			}
			input.MatchedProductID = &productID
		}

		view, err := svc.UpdateMapping(r.Context(), lineItemID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

type commitResponse struct {
	*importer.CommitResult
	Warnings []string `json:"warnings,omitempty"`
}

// ReceiptCommit applies every resolved line of the receipt to inventory.
func ReceiptCommit(svc importer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "import service unavailable"))
			return
		}

		receiptID, err := uuid.Parse(chi.URLParam(r, "receiptId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid receipt id"))
			return
		}

		result, err := svc.Commit(r.Context(), receiptID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := commitResponse{CommitResult: result}
		for _, warning := range multierr.Errors(result.Warnings) {
			resp.Warnings = append(resp.Warnings, warning.Error())
		}
		responses.WriteSuccess(w, resp)
	}
}
