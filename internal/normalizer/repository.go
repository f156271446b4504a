package normalizer

import (
	"context"

	"github.com/google/uuid"
	"github.com/mesaops/mesa-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository manages persistence for a restaurant's abbreviation table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.ItemAbbreviation, error)
	Upsert(ctx context.Context, entry *models.ItemAbbreviation) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an abbreviation repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.ItemAbbreviation, error) {
	var entries []models.ItemAbbreviation
	if err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("abbreviation ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) Upsert(ctx context.Context, entry *models.ItemAbbreviation) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "restaurant_id"}, {Name: "abbreviation"}},
			DoUpdates: clause.AssignmentColumns([]string{"expansion", "updated_at"}),
		}).
		Create(entry).Error
}
