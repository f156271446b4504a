package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mesaops/mesa-backend/api/responses"
	"github.com/mesaops/mesa-backend/internal/ledger"
	product "github.com/mesaops/mesa-backend/internal/products"
	"github.com/mesaops/mesa-backend/internal/suppliers"
	"github.com/mesaops/mesa-backend/pkg/config"
	"github.com/mesaops/mesa-backend/pkg/db/models"
	pkgerrors "github.com/mesaops/mesa-backend/pkg/errors"
	"github.com/mesaops/mesa-backend/pkg/logger"
)

// Catalog is the slice of the product repository the read endpoints use.
type Catalog interface {
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Product, error)
}

type candidateResponse struct {
	ProductID     string  `json:"product_id"`
	Name          string  `json:"name"`
	SKU           string  `json:"sku"`
	Similarity    float64 `json:"similarity"`
	CombinedScore float64 `json:"combined_score"`
	MatchType     string  `json:"match_type"`
}

// ProductSearch powers the manual review dialog: a free-text candidate search over
// the restaurant's catalog, ranked the same way the auto-matcher ranks.
func ProductSearch(searcher product.Searcher, cfg config.MatchingConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if searcher == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product search unavailable"))
			return
		}

		restaurantID, err := uuid.Parse(r.URL.Query().Get("restaurant_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restaurant id"))
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query parameter q is required"))
			return
		}

		candidates, err := searcher.SearchCandidates(r.Context(), product.SearchParams{
			RestaurantID:      restaurantID,
			Variant:           query,
			Threshold:         cfg.SearchThreshold,
			Limit:             cfg.SearchLimit,
			VerySimilarCutoff: cfg.VerySimilarThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "candidate search failed"))
			return
		}

		results := make([]candidateResponse, 0, len(candidates))
		for _, candidate := range candidates {
			results = append(results, candidateResponse{
				ProductID:     candidate.Product.ID.String(),
				Name:          candidate.Product.Name,
				SKU:           candidate.Product.SKU,
				Similarity:    candidate.Similarity,
				CombinedScore: candidate.CombinedScore,
				MatchType:     string(candidate.MatchType),
			})
		}

		responses.WriteSuccess(w, results)
	}
}

// ProductList returns the restaurant's catalog for the review surface.
func ProductList(catalog Catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product catalog unavailable"))
			return
		}

		restaurantID, err := uuid.Parse(r.URL.Query().Get("restaurant_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restaurant id"))
			return
		}

		products, err := catalog.ListByRestaurant(r.Context(), restaurantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing products"))
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// ProductTransactions returns a product's inventory ledger, newest first per the
// repository ordering.
func ProductTransactions(ledgerSvc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledgerSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		transactions, err := ledgerSvc.ListByProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing transactions"))
			return
		}

		responses.WriteSuccess(w, transactions)
	}
}

// ProductSupplierHistory returns the per-supplier purchase aggregates for a product.
func ProductSupplierHistory(supplierSvc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if supplierSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier history unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		history, err := supplierSvc.ListHistoryByProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing supplier history"))
			return
		}

		responses.WriteSuccess(w, history)
	}
}
