package drivers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a drivers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context, includeDeleted bool) ([]models.Driver, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}
	var drivers []models.Driver
	err := query.
		Order("name ASC, id ASC").
		Find(&drivers).Error
	if err != nil {
		return nil, err
	}
	return drivers, nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	var driver models.Driver
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&driver).Error
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *repository) Create(ctx context.Context, driver *models.Driver) (*models.Driver, error) {
	if err := r.db.WithContext(ctx).Create(driver).Error; err != nil {
		return nil, err
	}
	return driver, nil
}

func (r *repository) Update(ctx context.Context, driver *models.Driver) error {
	return r.db.WithContext(ctx).
		Model(&models.Driver{}).
		Where("id = ?", driver.ID).
		Updates(map[string]any{
			"name":                   driver.Name,
			"can_night":              driver.CanNight,
			"sleeps_in_cab":          driver.SleepsInCab,
			"double_manned_eligible": driver.DoubleMannedEligible,
			"week_availability":      driver.WeekAvailability,
			"leaves":                 driver.Leaves,
			"rating":                 driver.Rating,
		}).Error
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Driver{}).Error
}
