package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemAbbreviation is one learned correction in a restaurant's abbreviation table:
// vendor shorthand on the left, confirmed canonical text on the right.
type ItemAbbreviation struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID uuid.UUID `gorm:"column:restaurant_id;type:uuid;not null;uniqueIndex:idx_restaurant_abbreviation"`
	Abbreviation string    `gorm:"column:abbreviation;not null;uniqueIndex:idx_restaurant_abbreviation"`
	Expansion    string    `gorm:"column:expansion;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
