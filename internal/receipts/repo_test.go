package receipts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mesaops/mesa-backend/pkg/db/models"
	"github.com/mesaops/mesa-backend/pkg/enums"
)

func setupReceiptsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	receiptImports := `
CREATE TABLE IF NOT EXISTS receipt_imports (
  id TEXT PRIMARY KEY,
  restaurant_id TEXT NOT NULL,
  vendor_name TEXT NOT NULL,
  supplier_id TEXT,
  purchase_date DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'uploaded',
  imported_total TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	receiptLineItems := `
CREATE TABLE IF NOT EXISTS receipt_line_items (
  id TEXT PRIMARY KEY,
  receipt_id TEXT NOT NULL,
  raw_text TEXT NOT NULL,
  parsed_name TEXT,
  parsed_quantity REAL,
  parsed_unit TEXT,
  parsed_price TEXT,
  parsed_unit_price TEXT,
  parsed_sku TEXT,
  package_type TEXT,
  size_value REAL,
  size_unit TEXT,
  matched_product_id TEXT,
  confidence_score REAL,
  mapping_status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(receiptImports).Error)
	require.NoError(t, db.Exec(receiptLineItems).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM receipt_line_items")
		db.Exec("DELETE FROM receipt_imports")
	})
	return db
}

func newReceipt(t *testing.T, db *gorm.DB, restaurantID uuid.UUID) *models.ReceiptImport {
	t.Helper()

	receipt := &models.ReceiptImport{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		VendorName:   "Sysco",
		PurchaseDate: time.Now().UTC(),
		Status:       enums.ReceiptStatusUploaded,
	}
	require.NoError(t, db.Create(receipt).Error)
	return receipt
}

func newLine(t *testing.T, db *gorm.DB, receiptID uuid.UUID, rawText string, created time.Time) *models.ReceiptLineItem {
	t.Helper()

	line := &models.ReceiptLineItem{
		ID:            uuid.New(),
		ReceiptID:     receiptID,
		RawText:       rawText,
		MappingStatus: enums.MappingStatusPending,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	require.NoError(t, db.Create(line).Error)
	return line
}

func TestRepositoryListLineItemsOrdersByCreation(t *testing.T) {
	db := setupReceiptsTestDB(t)
	repo := NewRepository(db)

	receipt := newReceipt(t, db, uuid.New())
	now := time.Now().UTC()
	newLine(t, db, receipt.ID, "OLIVE OIL 1GAL", now.Add(time.Minute))
	newLine(t, db, receipt.ID, "CHKN BRST 5LB", now)

	lines, err := repo.ListLineItems(context.Background(), receipt.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "CHKN BRST 5LB", lines[0].RawText)
	assert.Equal(t, "OLIVE OIL 1GAL", lines[1].RawText)
}

func TestRepositoryUpdateLineItemReturnsPersistedRow(t *testing.T) {
	db := setupReceiptsTestDB(t)
	repo := NewRepository(db)

	receipt := newReceipt(t, db, uuid.New())
	line := newLine(t, db, receipt.ID, "CHKN BRST 5LB", time.Now().UTC())

	productID := uuid.New()
	updated, err := repo.UpdateLineItem(context.Background(), line.ID, map[string]any{
		"matched_product_id": productID,
		"confidence_score":   0.91,
		"mapping_status":     enums.MappingStatusMapped,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.MatchedProductID)
	assert.Equal(t, productID, *updated.MatchedProductID)
	assert.Equal(t, enums.MappingStatusMapped, updated.MappingStatus)
	require.NotNil(t, updated.ConfidenceScore)
	assert.InDelta(t, 0.91, *updated.ConfidenceScore, 1e-9)

	reread, err := repo.FindLineItem(context.Background(), line.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MappingStatusMapped, reread.MappingStatus)
}

func TestRepositoryFinalizeReceipt(t *testing.T) {
	db := setupReceiptsTestDB(t)
	repo := NewRepository(db)

	receipt := newReceipt(t, db, uuid.New())

	total := decimal.RequireFromString("62.50")
	require.NoError(t, repo.FinalizeReceipt(context.Background(), receipt.ID, total))

	reread, err := repo.FindReceipt(context.Background(), receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReceiptStatusImported, reread.Status)
	require.NotNil(t, reread.ImportedTotal)
	assert.True(t, reread.ImportedTotal.Equal(total))
}
