package locations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a locations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListLocations(ctx context.Context, includeDeleted bool) ([]models.Location, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}
	var locations []models.Location
	err := query.
		Order("name ASC, id ASC").
		Find(&locations).Error
	if err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *repository) FindLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *repository) CreateLocation(ctx context.Context, location *models.Location) (*models.Location, error) {
	if err := r.db.WithContext(ctx).Create(location).Error; err != nil {
		return nil, err
	}
	return location, nil
}

func (r *repository) UpdateLocation(ctx context.Context, location *models.Location) error {
	return r.db.WithContext(ctx).
		Model(&models.Location{}).
		Where("id = ?", location.ID).
		Updates(map[string]any{
			"name": location.Name,
			"lat":  location.Lat,
			"lng":  location.Lng,
		}).Error
}

func (r *repository) SoftDeleteLocation(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Location{}).Error
}

func (r *repository) ListDistances(ctx context.Context, includeDeleted bool) ([]models.Distance, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}
	var distances []models.Distance
	err := query.
		Order("from_name ASC, to_name ASC").
		Find(&distances).Error
	if err != nil {
		return nil, err
	}
	return distances, nil
}

func (r *repository) FindDistance(ctx context.Context, from, to string) (*models.Distance, error) {
	var distance models.Distance
	err := r.db.WithContext(ctx).
		Where("from_name = ? AND to_name = ?", from, to).
		First(&distance).Error
	if err != nil {
		return nil, err
	}
	return &distance, nil
}

func (r *repository) CreateDistance(ctx context.Context, distance *models.Distance) (*models.Distance, error) {
	if err := r.db.WithContext(ctx).Create(distance).Error; err != nil {
		return nil, err
	}
	return distance, nil
}

func (r *repository) UpdateDistanceKM(ctx context.Context, id uuid.UUID, km float64) error {
	return r.db.WithContext(ctx).
		Model(&models.Distance{}).
		Where("id = ?", id).
		Update("km", km).Error
}

func (r *repository) SoftDeleteDistance(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Distance{}).Error
}

func (r *repository) RenameInDistances(ctx context.Context, oldName, newName string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Distance{}).
		Where("from_name = ?", oldName).
		Update("from_name", newName).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.Distance{}).
		Where("to_name = ?", oldName).
		Update("to_name", newName).Error
}

func (r *repository) DeleteDistancesForLocation(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).
		Where("from_name = ? OR to_name = ?", name, name).
		Delete(&models.Distance{}).Error
}

func (r *repository) ReplaceDistances(ctx context.Context, distances []models.Distance) error {
	err := r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&models.Distance{}).Error
	if err != nil {
		return err
	}
	if len(distances) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&distances).Error
}
