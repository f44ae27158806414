package fleet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a fleet repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListTractors(ctx context.Context, includeDeleted bool) ([]models.Tractor, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}
	var tractors []models.Tractor
	err := query.
		Order("code ASC, id ASC").
		Find(&tractors).Error
	if err != nil {
		return nil, err
	}
	return tractors, nil
}

func (r *repository) FindTractor(ctx context.Context, id uuid.UUID) (*models.Tractor, error) {
	var tractor models.Tractor
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tractor).Error; err != nil {
		return nil, err
	}
	return &tractor, nil
}

func (r *repository) CreateTractor(ctx context.Context, tractor *models.Tractor) (*models.Tractor, error) {
	if err := r.db.WithContext(ctx).Create(tractor).Error; err != nil {
		return nil, err
	}
	return tractor, nil
}

func (r *repository) UpdateTractor(ctx context.Context, tractor *models.Tractor) error {
	return r.db.WithContext(ctx).
		Model(&models.Tractor{}).
		Where("id = ?", tractor.ID).
		Updates(map[string]any{
			"code":          tractor.Code,
			"plate":         tractor.Plate,
			"location":      tractor.Location,
			"double_manned": tractor.DoubleManned,
			"type_tags":     tractor.TypeTags,
		}).Error
}

func (r *repository) SoftDeleteTractor(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Tractor{}).Error
}

func (r *repository) ListTrailers(ctx context.Context, includeDeleted bool) ([]models.Trailer, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}
	var trailers []models.Trailer
	err := query.
		Order("code ASC, id ASC").
		Find(&trailers).Error
	if err != nil {
		return nil, err
	}
	return trailers, nil
}

func (r *repository) FindTrailer(ctx context.Context, id uuid.UUID) (*models.Trailer, error) {
	var trailer models.Trailer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&trailer).Error; err != nil {
		return nil, err
	}
	return &trailer, nil
}

func (r *repository) CreateTrailer(ctx context.Context, trailer *models.Trailer) (*models.Trailer, error) {
	if err := r.db.WithContext(ctx).Create(trailer).Error; err != nil {
		return nil, err
	}
	return trailer, nil
}

func (r *repository) UpdateTrailer(ctx context.Context, trailer *models.Trailer) error {
	return r.db.WithContext(ctx).
		Model(&models.Trailer{}).
		Where("id = ?", trailer.ID).
		Updates(map[string]any{
			"code":      trailer.Code,
			"plate":     trailer.Plate,
			"type_tags": trailer.TypeTags,
		}).Error
}

func (r *repository) SoftDeleteTrailer(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Trailer{}).Error
}
