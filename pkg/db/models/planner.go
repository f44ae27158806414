package models

import (
	"time"

	"github.com/shopspring/decimal"

	dbtypes "github.com/planboardhq/planboard-backend/pkg/db/types"
)

// PlannerMetaID is the primary key of the singleton meta row.
const PlannerMetaID = 1

// PlannerSettingsID is the primary key of the singleton settings row.
const PlannerSettingsID = 1

// PlannerMeta is the singleton shared-state record. Version is the single
// global concurrency token: every successful mutation to any collection
// increments it by exactly one inside the mutation's transaction, and the
// row lock on this record serializes concurrent mutators.
type PlannerMeta struct {
	ID        int       `gorm:"column:id;primaryKey" json:"-"`
	WeekStart *string   `gorm:"column:week_start" json:"weekStart"`
	Version   int64     `gorm:"column:version;not null;default:1" json:"version"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

// TableName pins the singleton table to a singular name.
func (PlannerMeta) TableName() string { return "planner_meta" }

// PlannerSettings is the singleton pricing/cost-rate configuration, edited
// wholesale through the concurrency gate like any other collection.
type PlannerSettings struct {
	ID                   int                `gorm:"column:id;primaryKey" json:"-"`
	PerKMRate            decimal.Decimal    `gorm:"column:per_km_rate;type:numeric(12,2);not null;default:0" json:"perKmRate"`
	HourlyDriverCost     decimal.Decimal    `gorm:"column:hourly_driver_cost;type:numeric(12,2);not null;default:0" json:"hourlyDriverCost"`
	NightPremium         decimal.Decimal    `gorm:"column:night_premium;type:numeric(12,2);not null;default:0" json:"nightPremium"`
	TrailerTypeDailyCost dbtypes.DecimalMap `gorm:"column:trailer_type_daily_cost;type:jsonb;not null;default:'{}'" json:"trailerTypeDailyCost"`
	UpdatedAt            time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

// TableName pins the singleton table to a singular name.
func (PlannerSettings) TableName() string { return "planner_settings" }
