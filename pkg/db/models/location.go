package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is a named place jobs route between. The name doubles as the key
// into the distance matrix, so renames cascade there.
type Location struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null;uniqueIndex:idx_locations_name" json:"name"`
	Lat       *float64       `gorm:"column:lat" json:"lat"`
	Lng       *float64       `gorm:"column:lng" json:"lng"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

// Distance is one sparse matrix cell: kilometers from one location name to
// another. Not guaranteed symmetric; an absent row means the distance is
// unknown, not zero.
type Distance struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	From      string         `gorm:"column:from_name;not null;uniqueIndex:idx_distances_from_to" json:"from"`
	To        string         `gorm:"column:to_name;not null;uniqueIndex:idx_distances_from_to" json:"to"`
	KM        float64        `gorm:"column:km;not null" json:"km"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}
