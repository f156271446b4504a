package normalizer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mesaops/mesa-backend/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRepository struct {
	listFn   func(ctx context.Context, restaurantID uuid.UUID) ([]models.ItemAbbreviation, error)
	upsertFn func(ctx context.Context, entry *models.ItemAbbreviation) error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.ItemAbbreviation, error) {
	if f.listFn != nil {
		return f.listFn(ctx, restaurantID)
	}
	return nil, nil
}

func (f *fakeRepository) Upsert(ctx context.Context, entry *models.ItemAbbreviation) error {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, entry)
	}
	return nil
}

func newTable(restaurantID uuid.UUID, entries map[string]string) *Table {
	table := &Table{restaurantID: restaurantID, expansions: map[string]string{}}
	for abbr, exp := range entries {
		table.put(abbr, exp)
	}
	return table
}

func TestVariants_RawTextAlwaysFirst(t *testing.T) {
	svc, err := NewService(&fakeRepository{}, nil)
	require.NoError(t, err)

	table := newTable(uuid.New(), map[string]string{"chkn": "chicken", "brst": "breast"})
	variants := svc.Variants(table, "CHKN BRST 5LB")

	require.NotEmpty(t, variants)
	assert.Equal(t, "CHKN BRST 5LB", variants[0])
	assert.Contains(t, variants, "chicken breast 5lb")
	assert.Contains(t, variants, "chicken breast")
}

func TestVariants_NoTableDegradesToExactText(t *testing.T) {
	svc, err := NewService(&fakeRepository{}, nil)
	require.NoError(t, err)

	variants := svc.Variants(newTable(uuid.New(), nil), "Olive Oil 750ml")

	assert.Equal(t, "Olive Oil 750ml", variants[0])
	// stripped form still produced without any abbreviation entries
	assert.Contains(t, variants, "olive oil")
}

func TestVariants_Deduplicates(t *testing.T) {
	svc, err := NewService(&fakeRepository{}, nil)
	require.NoError(t, err)

	variants := svc.Variants(newTable(uuid.New(), nil), "napkins")
	assert.Equal(t, []string{"napkins"}, variants)
}

func TestVariants_EmptyInput(t *testing.T) {
	svc, err := NewService(&fakeRepository{}, nil)
	require.NoError(t, err)

	assert.Nil(t, svc.Variants(newTable(uuid.New(), nil), "   "))
}

func TestLoadTable_RepositoryFailureDegrades(t *testing.T) {
	repo := &fakeRepository{
		listFn: func(ctx context.Context, restaurantID uuid.UUID) ([]models.ItemAbbreviation, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	table := svc.LoadTable(context.Background(), uuid.New())
	require.NotNil(t, table)
	assert.Zero(t, table.Len())
}

func TestLoadTable_PopulatesEntries(t *testing.T) {
	restaurantID := uuid.New()
	repo := &fakeRepository{
		listFn: func(ctx context.Context, id uuid.UUID) ([]models.ItemAbbreviation, error) {
			require.Equal(t, restaurantID, id)
			return []models.ItemAbbreviation{
				{RestaurantID: id, Abbreviation: "chkn", Expansion: "chicken"},
			}, nil
		},
	}
	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	table := svc.LoadTable(context.Background(), restaurantID)
	expansion, ok := table.Expand("CHKN")
	require.True(t, ok)
	assert.Equal(t, "chicken", expansion)
}

func TestLearn_UpsertsWholeTextAndTokenPairs(t *testing.T) {
	var upserted []models.ItemAbbreviation
	repo := &fakeRepository{
		upsertFn: func(ctx context.Context, entry *models.ItemAbbreviation) error {
			upserted = append(upserted, *entry)
			return nil
		},
	}
	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	table := newTable(uuid.New(), nil)
	require.NoError(t, svc.Learn(context.Background(), table, "CHKN BRST", "Chicken Breast"))

	abbreviations := map[string]string{}
	for _, entry := range upserted {
		abbreviations[entry.Abbreviation] = entry.Expansion
	}
	assert.Equal(t, "Chicken Breast", abbreviations["chkn brst"])
	assert.Equal(t, "chicken", abbreviations["chkn"])
	assert.Equal(t, "breast", abbreviations["brst"])

	// the in-hand table is updated so later lines in the same pass benefit
	expansion, ok := table.Expand("chkn")
	require.True(t, ok)
	assert.Equal(t, "chicken", expansion)
}

func TestLearn_IdenticalTextIsNoOp(t *testing.T) {
	repo := &fakeRepository{
		upsertFn: func(ctx context.Context, entry *models.ItemAbbreviation) error {
			t.Fatal("no upsert expected for identical text")
			return nil
		},
	}
	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Learn(context.Background(), newTable(uuid.New(), nil), "Napkins", "napkins"))
}

func TestLearn_RepositoryErrorBubbles(t *testing.T) {
	expected := errors.New("boom")
	repo := &fakeRepository{
		upsertFn: func(ctx context.Context, entry *models.ItemAbbreviation) error {
			return expected
		},
	}
	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	err = svc.Learn(context.Background(), newTable(uuid.New(), nil), "CHKN", "Chicken")
	require.Error(t, err)
	assert.ErrorIs(t, err, expected)
}
