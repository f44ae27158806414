package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Tractor is a truck unit. DoubleManned gates whether two drivers may crew a
// job assigned to it.
type Tractor struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code         string         `gorm:"column:code;not null" json:"code"`
	Plate        string         `gorm:"column:plate" json:"plate"`
	Location     string         `gorm:"column:location" json:"location"`
	DoubleManned bool           `gorm:"column:double_manned;not null;default:false" json:"doubleManned"`
	TypeTags     pq.StringArray `gorm:"column:type_tags;type:text[];not null;default:ARRAY[]::text[]" json:"typeTags"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}
