package planner

import (
	"context"

	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
)

// Repository defines persistence operations for the singleton meta and
// settings rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetMeta(ctx context.Context) (*models.PlannerMeta, error)
	LockMeta(ctx context.Context) (*models.PlannerMeta, error)
	SaveMeta(ctx context.Context, meta *models.PlannerMeta) error
	GetSettings(ctx context.Context) (*models.PlannerSettings, error)
	SaveSettings(ctx context.Context, settings *models.PlannerSettings) error
}

// Service exposes meta and settings reads plus their gated updates.
type Service interface {
	GetMeta(ctx context.Context) (*models.PlannerMeta, error)
	UpdateMeta(ctx context.Context, input UpdateMetaInput) (*models.PlannerMeta, error)
	GetSettings(ctx context.Context) (*models.PlannerSettings, error)
	UpdateSettings(ctx context.Context, input UpdateSettingsInput) (*SettingsResult, error)
}
