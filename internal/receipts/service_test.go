package receipts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mesaops/mesa-backend/internal/normalizer"
	"github.com/mesaops/mesa-backend/pkg/db/models"
	"github.com/mesaops/mesa-backend/pkg/enums"
	pkgerrors "github.com/mesaops/mesa-backend/pkg/errors"
)

type fakeRepository struct {
	createFn   func(ctx context.Context, receipt *models.ReceiptImport) error
	findFn     func(ctx context.Context, id uuid.UUID) (*models.ReceiptImport, error)
	listFn     func(ctx context.Context, receiptID uuid.UUID) ([]models.ReceiptLineItem, error)
	findLineFn func(ctx context.Context, id uuid.UUID) (*models.ReceiptLineItem, error)
	updateFn   func(ctx context.Context, lineItemID uuid.UUID, updates map[string]any) (*models.ReceiptLineItem, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreateReceipt(ctx context.Context, receipt *models.ReceiptImport) error {
	if f.createFn != nil {
		return f.createFn(ctx, receipt)
	}
	return nil
}

func (f *fakeRepository) FindReceipt(ctx context.Context, id uuid.UUID) (*models.ReceiptImport, error) {
	if f.findFn != nil {
		return f.findFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListLineItems(ctx context.Context, receiptID uuid.UUID) ([]models.ReceiptLineItem, error) {
	if f.listFn != nil {
		return f.listFn(ctx, receiptID)
	}
	return nil, nil
}

func (f *fakeRepository) FindLineItem(ctx context.Context, id uuid.UUID) (*models.ReceiptLineItem, error) {
	if f.findLineFn != nil {
		return f.findLineFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) UpdateLineItem(ctx context.Context, lineItemID uuid.UUID, updates map[string]any) (*models.ReceiptLineItem, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, lineItemID, updates)
	}
	return nil, nil
}

func (f *fakeRepository) FinalizeReceipt(ctx context.Context, receiptID uuid.UUID, importedTotal decimal.Decimal) error {
	return nil
}

type fakeMatcher struct {
	resolveFn func(ctx context.Context, restaurantID uuid.UUID, lines []models.ReceiptLineItem) (int, error)
}

func (f *fakeMatcher) ResolvePending(ctx context.Context, restaurantID uuid.UUID, lines []models.ReceiptLineItem) (int, error) {
	if f.resolveFn != nil {
		return f.resolveFn(ctx, restaurantID, lines)
	}
	return 0, nil
}

type fakeProducts struct {
	findFn    func(ctx context.Context, id uuid.UUID) (*models.Product, error)
	findIDsFn func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
}

func (f *fakeProducts) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if f.findFn != nil {
		return f.findFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProducts) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	if f.findIDsFn != nil {
		return f.findIDsFn(ctx, ids)
	}
	return map[uuid.UUID]*models.Product{}, nil
}

type fakeNormalizer struct {
	learnFn func(ctx context.Context, table *normalizer.Table, originalText, canonicalName string) error
}

func (f *fakeNormalizer) LoadTable(ctx context.Context, restaurantID uuid.UUID) *normalizer.Table {
	return &normalizer.Table{}
}

func (f *fakeNormalizer) Variants(table *normalizer.Table, text string) []string {
	return []string{text}
}

func (f *fakeNormalizer) Learn(ctx context.Context, table *normalizer.Table, originalText, canonicalName string) error {
	if f.learnFn != nil {
		return f.learnFn(ctx, table, originalText, canonicalName)
	}
	return nil
}

func newTestService(t *testing.T, repo *fakeRepository, matcher *fakeMatcher, products *fakeProducts, norm *fakeNormalizer) Service {
	t.Helper()
	if repo == nil {
		repo = &fakeRepository{}
	}
	if matcher == nil {
		matcher = &fakeMatcher{}
	}
	if products == nil {
		products = &fakeProducts{}
	}
	if norm == nil {
		norm = &fakeNormalizer{}
	}
	svc, err := NewService(repo, matcher, products, norm, nil)
	require.NoError(t, err)
	return svc
}

func TestCreateReceipt_Validation(t *testing.T) {
	svc := newTestService(t, nil, nil, nil, nil)

	_, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		VendorName: "Sysco",
		Lines:      []CreateLineInput{{RawText: "CHKN"}},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.CreateReceipt(context.Background(), CreateReceiptInput{
		RestaurantID: uuid.New(),
		VendorName:   "Sysco",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.CreateReceipt(context.Background(), CreateReceiptInput{
		RestaurantID: uuid.New(),
		VendorName:   "Sysco",
		Lines:        []CreateLineInput{{RawText: ""}},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateReceipt_LinesStartPending(t *testing.T) {
	var created *models.ReceiptImport
	repo := &fakeRepository{
		createFn: func(ctx context.Context, receipt *models.ReceiptImport) error {
			created = receipt
			return nil
		},
	}
	svc := newTestService(t, repo, nil, nil, nil)

	receipt, err := svc.CreateReceipt(context.Background(), CreateReceiptInput{
		RestaurantID: uuid.New(),
		VendorName:   "Sysco",
		PurchaseDate: time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
		Lines: []CreateLineInput{
			{RawText: "CHKN BRST 5LB"},
			{RawText: "OLV OIL", ParsedName: strPtr("Olive Oil")},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, enums.ReceiptStatusUploaded, receipt.Status)
	require.Len(t, receipt.LineItems, 2)
	for _, line := range receipt.LineItems {
		assert.Equal(t, enums.MappingStatusPending, line.MappingStatus)
	}
}

func TestListLineItems_ReceiptNotFound(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, nil, nil, nil)

	_, err := svc.ListLineItems(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListLineItems_RunsMatchPassAndRereads(t *testing.T) {
	receiptID := uuid.New()
	restaurantID := uuid.New()
	productID := uuid.New()

	pending := models.ReceiptLineItem{ID: uuid.New(), ReceiptID: receiptID, RawText: "CHKN BRST", MappingStatus: enums.MappingStatusPending}
	mapped := pending
	mapped.MappingStatus = enums.MappingStatusMapped
	mapped.MatchedProductID = &productID

	listCalls := 0
	repo := &fakeRepository{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.ReceiptImport, error) {
			return &models.ReceiptImport{ID: receiptID, RestaurantID: restaurantID, Status: enums.ReceiptStatusUploaded}, nil
		},
		listFn: func(ctx context.Context, id uuid.UUID) ([]models.ReceiptLineItem, error) {
			listCalls++
			if listCalls == 1 {
				return []models.ReceiptLineItem{pending}, nil
			}
			return []models.ReceiptLineItem{mapped}, nil
		},
	}
	matcher := &fakeMatcher{
		resolveFn: func(ctx context.Context, rid uuid.UUID, lines []models.ReceiptLineItem) (int, error) {
			require.Equal(t, restaurantID, rid)
			return 1, nil
		},
	}
	products := &fakeProducts{
		findIDsFn: func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
			require.Equal(t, []uuid.UUID{productID}, ids)
			return map[uuid.UUID]*models.Product{
				productID: {ID: productID, Name: "Chicken Breast", PackageType: strPtr("case")},
			}, nil
		},
	}

	svc := newTestService(t, repo, matcher, products, nil)
	views, err := svc.ListLineItems(context.Background(), receiptID)
	require.NoError(t, err)

	assert.Equal(t, 2, listCalls, "list must re-read after the match pass")
	require.Len(t, views, 1)
	require.NotNil(t, views[0].MatchedProduct)
	assert.Equal(t, "Chicken Breast", views[0].MatchedProduct.Name)
	assert.Equal(t, strPtr("case"), views[0].SuggestedPackageType)
}

func TestUpdateMapping_ImportedReceiptIsFrozen(t *testing.T) {
	receiptID := uuid.New()
	lineID := uuid.New()
	repo := &fakeRepository{
		findLineFn: func(ctx context.Context, id uuid.UUID) (*models.ReceiptLineItem, error) {
			return &models.ReceiptLineItem{ID: lineID, ReceiptID: receiptID, MappingStatus: enums.MappingStatusMapped}, nil
		},
		findFn: func(ctx context.Context, id uuid.UUID) (*models.ReceiptImport, error) {
			return &models.ReceiptImport{ID: receiptID, Status: enums.ReceiptStatusImported}, nil
		},
	}
	svc := newTestService(t, repo, nil, nil, nil)

	_, err := svc.UpdateMapping(context.Background(), lineID, UpdateMappingInput{Status: enums.MappingStatusIgnored})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestUpdateMapping_MappedRequiresProduct(t *testing.T) {
	receiptID := uuid.New()
	lineID := uuid.New()
	repo := &fakeRepository{
		findLineFn: func(ctx context.Context, id uuid.UUID) (*models.ReceiptLineItem, error) {
			return &models.ReceiptLineItem{ID: lineID, ReceiptID: receiptID, MappingStatus: enums.MappingStatusPending}, nil
		},
		findFn: func(ctx context.Context, id uuid.UUID) (*models.ReceiptImport, error) {
			return &models.ReceiptImport{ID: receiptID, Status: enums.ReceiptStatusUploaded}, nil
		},
	}
	svc := newTestService(t, repo, nil, nil, nil)

	_, err := svc.UpdateMapping(context.Background(), lineID, UpdateMappingInput{Status: enums.MappingStatusMapped})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateMapping_ProductFromOtherRestaurantRejected(t *testing.T) {
	receiptID := uuid.New()
	lineID := uuid.New()
	productID := uuid.New()
	repo := &fakeRepository{
		findLineFn: func(ctx context.Context, id uuid.UUID) (*models.ReceiptLineItem, error) {
			return &models.ReceiptLineItem{ID: lineID, ReceiptID: receiptID, MappingStatus: enums.MappingStatusPending}, nil
		},
		findFn: func(ctx context.Context, id uuid.UUID) (*models.ReceiptImport, error) {
			return &models.ReceiptImport{ID: receiptID, RestaurantID: uuid.New(), Status: enums.ReceiptStatusUploaded}, nil
		},
	}
	products := &fakeProducts{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
			return &models.Product{ID: productID, RestaurantID: uuid.New(), Name: "Chicken Breast"}, nil
		},
	}
	svc := newTestService(t, repo, nil, products, nil)

	_, err := svc.UpdateMapping(context.Background(), lineID, UpdateMappingInput{
		Status:           enums.MappingStatusMapped,
		MatchedProductID: &productID,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateMapping_ManualMapSetsFullConfidenceAndLearns(t *testing.T) {
	receiptID := uuid.New()
	restaurantID := uuid.New()
	lineID := uuid.New()
	productID := uuid.New()

	var wroteUpdates map[string]any
	repo := &fakeRepository{
		findLineFn: func(ctx context.Context, id uuid.UUID) (*models.ReceiptLineItem, error) {
			return &models.ReceiptLineItem{ID: lineID, ReceiptID: receiptID, RawText: "CHKN BRST", MappingStatus: enums.MappingStatusPending}, nil
		},
		findFn: func(ctx context.Context, id uuid.UUID) (*models.ReceiptImport, error) {
			return &models.ReceiptImport{ID: receiptID, RestaurantID: restaurantID, Status: enums.ReceiptStatusUploaded}, nil
		},
		updateFn: func(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.ReceiptLineItem, error) {
			wroteUpdates = updates
			score := 1.0
			return &models.ReceiptLineItem{
				ID:               lineID,
				ReceiptID:        receiptID,
				RawText:          "CHKN BRST",
				MatchedProductID: &productID,
				ConfidenceScore:  &score,
				MappingStatus:    enums.MappingStatusMapped,
			}, nil
		},
	}
	products := &fakeProducts{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
			return &models.Product{ID: productID, RestaurantID: restaurantID, Name: "Chicken Breast"}, nil
		},
	}

	var learned bool
	norm := &fakeNormalizer{
		learnFn: func(ctx context.Context, table *normalizer.Table, originalText, canonicalName string) error {
			learned = true
			assert.Equal(t, "CHKN BRST", originalText)
			assert.Equal(t, "Chicken Breast", canonicalName)
			return nil
		},
	}

	svc := newTestService(t, repo, nil, products, norm)
	view, err := svc.UpdateMapping(context.Background(), lineID, UpdateMappingInput{
		Status:           enums.MappingStatusMapped,
		MatchedProductID: &productID,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.MappingStatusMapped, wroteUpdates["mapping_status"])
	assert.Equal(t, productID, wroteUpdates["matched_product_id"])
	assert.Equal(t, 1.0, wroteUpdates["confidence_score"])
	assert.True(t, learned)
	require.NotNil(t, view.MatchedProduct)
	assert.Equal(t, "Chicken Breast", view.MatchedProduct.Name)
}

func TestUpdateMapping_IgnoredClearsMatch(t *testing.T) {
	receiptID := uuid.New()
	lineID := uuid.New()

	var wroteUpdates map[string]any
	repo := &fakeRepository{
		findLineFn: func(ctx context.Context, id uuid.UUID) (*models.ReceiptLineItem, error) {
			productID := uuid.New()
			return &models.ReceiptLineItem{ID: lineID, ReceiptID: receiptID, MatchedProductID: &productID, MappingStatus: enums.MappingStatusMapped}, nil
		},
		findFn: func(ctx context.Context, id uuid.UUID) (*models.ReceiptImport, error) {
			return &models.ReceiptImport{ID: receiptID, Status: enums.ReceiptStatusUploaded}, nil
		},
		updateFn: func(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.ReceiptLineItem, error) {
			wroteUpdates = updates
			return &models.ReceiptLineItem{ID: lineID, ReceiptID: receiptID, MappingStatus: enums.MappingStatusIgnored}, nil
		},
	}
	svc := newTestService(t, repo, nil, nil, nil)

	view, err := svc.UpdateMapping(context.Background(), lineID, UpdateMappingInput{Status: enums.MappingStatusIgnored})
	require.NoError(t, err)

	assert.Equal(t, enums.MappingStatusIgnored, wroteUpdates["mapping_status"])
	assert.Nil(t, wroteUpdates["matched_product_id"])
	assert.Nil(t, wroteUpdates["confidence_score"])
	assert.Nil(t, view.MatchedProduct)
}
