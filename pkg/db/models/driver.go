package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Driver is a person who can be assigned to jobs. WeekAvailability is NULL
// when the driver works any weekday and an explicit empty array when the
// driver works none; Leaves hold ISO dates the driver is off regardless of
// the weekly pattern.
type Driver struct {
	ID                   uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                 string         `gorm:"column:name;not null" json:"name"`
	CanNight             bool           `gorm:"column:can_night;not null;default:false" json:"canNight"`
	SleepsInCab          bool           `gorm:"column:sleeps_in_cab;not null;default:false" json:"sleepsInCab"`
	DoubleMannedEligible bool           `gorm:"column:double_manned_eligible;not null;default:false" json:"doubleMannedEligible"`
	WeekAvailability     *pq.Int64Array `gorm:"column:week_availability;type:smallint[]" json:"weekAvailability"`
	Leaves               pq.StringArray `gorm:"column:leaves;type:text[];not null;default:ARRAY[]::text[]" json:"leaves"`
	Rating               float64        `gorm:"column:rating;not null;default:0" json:"rating"`
	CreatedAt            time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	DeletedAt            gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}
