package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mesaops/mesa-backend/api/controllers"
	"github.com/mesaops/mesa-backend/api/middleware"
	"github.com/mesaops/mesa-backend/internal/importer"
	"github.com/mesaops/mesa-backend/internal/ledger"
	product "github.com/mesaops/mesa-backend/internal/products"
	"github.com/mesaops/mesa-backend/internal/receipts"
	"github.com/mesaops/mesa-backend/internal/suppliers"
	"github.com/mesaops/mesa-backend/pkg/config"
	"github.com/mesaops/mesa-backend/pkg/db"
	"github.com/mesaops/mesa-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	receiptService receipts.Service,
	importService importer.Service,
	searcher product.Searcher,
	catalog controllers.Catalog,
	ledgerService ledger.Service,
	supplierService suppliers.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/receipts", func(r chi.Router) {
			r.Post("/", controllers.ReceiptCreate(receiptService, logg))
			r.Get("/{receiptId}/line-items", controllers.ReceiptLineItems(receiptService, logg))
			r.Post("/{receiptId}/commit", controllers.ReceiptCommit(importService, logg))
		})
		r.Patch("/line-items/{lineItemId}", controllers.LineItemUpdateMapping(receiptService, logg))
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(catalog, logg))
			r.Get("/search", controllers.ProductSearch(searcher, cfg.Matching, logg))
			r.Get("/{productId}/transactions", controllers.ProductTransactions(ledgerService, logg))
			r.Get("/{productId}/suppliers", controllers.ProductSupplierHistory(supplierService, logg))
		})
	})

	return r
}
