package jobs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/internal/schedule"
	"github.com/planboardhq/planboard-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a jobs repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context, includeDeleted bool) ([]models.Job, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}
	var jobs []models.Job
	err := query.
		Order("date ASC, start ASC, id ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repository) Create(ctx context.Context, job *models.Job) (*models.Job, error) {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *repository) Update(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"date":                 job.Date,
			"start":                job.Start,
			"duration_hours":       job.DurationHours,
			"slot":                 job.Slot,
			"client":               job.Client,
			"pickup":               job.Pickup,
			"dropoff":              job.Dropoff,
			"start_point":          job.StartPoint,
			"end_point":            job.EndPoint,
			"allow_start_override": job.AllowStartOverride,
			"tractor_id":           job.TractorID,
			"trailer_id":           job.TrailerID,
			"driver_ids":           job.DriverIDs,
			"pricing_mode":         job.PricingMode,
			"price_value":          job.PriceValue,
			"revenue":              job.Revenue,
			"cost_driver":          job.CostDriver,
			"cost_truck":           job.CostTruck,
			"cost_diesel":          job.CostDiesel,
			"notes":                job.Notes,
			"code":                 job.Code,
			"color":                job.Color,
		}).Error
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Job{}).Error
}

func (r *repository) LoadState(ctx context.Context) (schedule.State, error) {
	state := schedule.State{
		Drivers:  map[uuid.UUID]*models.Driver{},
		Tractors: map[uuid.UUID]*models.Tractor{},
		Trailers: map[uuid.UUID]*models.Trailer{},
	}

	var drivers []models.Driver
	if err := r.db.WithContext(ctx).Find(&drivers).Error; err != nil {
		return state, err
	}
	for i := range drivers {
		state.Drivers[drivers[i].ID] = &drivers[i]
	}

	var tractors []models.Tractor
	if err := r.db.WithContext(ctx).Find(&tractors).Error; err != nil {
		return state, err
	}
	for i := range tractors {
		state.Tractors[tractors[i].ID] = &tractors[i]
	}

	var trailers []models.Trailer
	if err := r.db.WithContext(ctx).Find(&trailers).Error; err != nil {
		return state, err
	}
	for i := range trailers {
		state.Trailers[trailers[i].ID] = &trailers[i]
	}

	if err := r.db.WithContext(ctx).Find(&state.Jobs).Error; err != nil {
		return state, err
	}
	return state, nil
}

func (r *repository) Settings(ctx context.Context) (*models.PlannerSettings, error) {
	var settings models.PlannerSettings
	err := r.db.WithContext(ctx).
		Where("id = ?", models.PlannerSettingsID).
		First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.PlannerSettings{ID: models.PlannerSettingsID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repository) DistanceKM(ctx context.Context, from, to string) (*float64, error) {
	var distance models.Distance
	err := r.db.WithContext(ctx).
		Where("from_name = ? AND to_name = ?", from, to).
		First(&distance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &distance.KM, nil
}
