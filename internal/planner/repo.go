package planner

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a planner repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetMeta(ctx context.Context) (*models.PlannerMeta, error) {
	var meta models.PlannerMeta
	err := r.db.WithContext(ctx).Where("id = ?", models.PlannerMetaID).First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.seedMeta(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// LockMeta takes the row lock that serializes all planner mutations. The
// singleton row is seeded on first use. SQLite has no row locks; its single
// writer already serializes transactions, so the locking clause is only
// applied on postgres.
func (r *repository) LockMeta(ctx context.Context) (*models.PlannerMeta, error) {
	query := r.db.WithContext(ctx)
	if query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var meta models.PlannerMeta
	err := query.Where("id = ?", models.PlannerMetaID).First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.seedMeta(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (r *repository) seedMeta(ctx context.Context) (*models.PlannerMeta, error) {
	meta := models.PlannerMeta{ID: models.PlannerMetaID, Version: 1}
	if err := r.db.WithContext(ctx).Create(&meta).Error; err != nil {
		return nil, err
	}
	return &meta, nil
}

func (r *repository) SaveMeta(ctx context.Context, meta *models.PlannerMeta) error {
	return r.db.WithContext(ctx).
		Model(&models.PlannerMeta{}).
		Where("id = ?", models.PlannerMetaID).
		Updates(map[string]any{
			"week_start": meta.WeekStart,
			"version":    meta.Version,
		}).Error
}

func (r *repository) GetSettings(ctx context.Context) (*models.PlannerSettings, error) {
	var settings models.PlannerSettings
	err := r.db.WithContext(ctx).Where("id = ?", models.PlannerSettingsID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.PlannerSettings{ID: models.PlannerSettingsID}
		if err := r.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repository) SaveSettings(ctx context.Context, settings *models.PlannerSettings) error {
	return r.db.WithContext(ctx).
		Model(&models.PlannerSettings{}).
		Where("id = ?", models.PlannerSettingsID).
		Updates(map[string]any{
			"per_km_rate":             settings.PerKMRate,
			"hourly_driver_cost":      settings.HourlyDriverCost,
			"night_premium":           settings.NightPremium,
			"trailer_type_daily_cost": settings.TrailerTypeDailyCost,
		}).Error
}
