package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/planboardhq/planboard-backend/pkg/db/types"
	"github.com/planboardhq/planboard-backend/pkg/enums"
)

// Job is the scheduling unit. Date/Start/DurationHours resolve to an
// absolute interval; a job missing any of the three is a draft and exempt
// from conflict validation. DriverIDs is ordered and holds at most two
// entries.
type Job struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Date               *string           `gorm:"column:date" json:"date"`
	Start              *string           `gorm:"column:start" json:"start"`
	DurationHours      *float64          `gorm:"column:duration_hours" json:"durationHours"`
	Slot               enums.Slot        `gorm:"column:slot" json:"slot"`
	Client             string            `gorm:"column:client" json:"client"`
	Pickup             string            `gorm:"column:pickup" json:"pickup"`
	Dropoff            string            `gorm:"column:dropoff" json:"dropoff"`
	StartPoint         string            `gorm:"column:start_point" json:"startPoint"`
	EndPoint           string            `gorm:"column:end_point" json:"endPoint"`
	AllowStartOverride bool              `gorm:"column:allow_start_override;not null;default:false" json:"allowStartOverride"`
	TractorID          *uuid.UUID        `gorm:"column:tractor_id;type:uuid" json:"tractorId"`
	TrailerID          *uuid.UUID        `gorm:"column:trailer_id;type:uuid" json:"trailerId"`
	DriverIDs          dbtypes.UUIDArray `gorm:"column:driver_ids;type:uuid[];not null;default:'{}'" json:"driverIds"`
	PricingMode        enums.PricingMode `gorm:"column:pricing_mode" json:"pricingMode"`
	PriceValue         decimal.Decimal   `gorm:"column:price_value;type:numeric(12,2);not null;default:0" json:"priceValue"`
	Revenue            decimal.Decimal   `gorm:"column:revenue;type:numeric(12,2);not null;default:0" json:"revenue"`
	CostDriver         decimal.Decimal   `gorm:"column:cost_driver;type:numeric(12,2);not null;default:0" json:"costDriver"`
	CostTruck          decimal.Decimal   `gorm:"column:cost_truck;type:numeric(12,2);not null;default:0" json:"costTruck"`
	CostDiesel         decimal.Decimal   `gorm:"column:cost_diesel;type:numeric(12,2);not null;default:0" json:"costDiesel"`
	Notes              string            `gorm:"column:notes" json:"notes"`
	Code               string            `gorm:"column:code" json:"code"`
	Color              string            `gorm:"column:color" json:"color"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	DeletedAt          gorm.DeletedAt    `gorm:"column:deleted_at;index" json:"-"`
}
