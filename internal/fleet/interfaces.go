package fleet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/pkg/auth"
	"github.com/planboardhq/planboard-backend/pkg/db/models"
)

// Repository defines persistence operations for tractors and trailers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ListTractors(ctx context.Context, includeDeleted bool) ([]models.Tractor, error)
	FindTractor(ctx context.Context, id uuid.UUID) (*models.Tractor, error)
	CreateTractor(ctx context.Context, tractor *models.Tractor) (*models.Tractor, error)
	UpdateTractor(ctx context.Context, tractor *models.Tractor) error
	SoftDeleteTractor(ctx context.Context, id uuid.UUID) error

	ListTrailers(ctx context.Context, includeDeleted bool) ([]models.Trailer, error)
	FindTrailer(ctx context.Context, id uuid.UUID) (*models.Trailer, error)
	CreateTrailer(ctx context.Context, trailer *models.Trailer) (*models.Trailer, error)
	UpdateTrailer(ctx context.Context, trailer *models.Trailer) error
	SoftDeleteTrailer(ctx context.Context, id uuid.UUID) error
}

// TractorInput carries the caller-editable tractor fields. Updates replace
// all of them.
type TractorInput struct {
	Code         string   `json:"code"`
	Plate        string   `json:"plate"`
	Location     string   `json:"location"`
	DoubleManned bool     `json:"doubleManned"`
	TypeTags     []string `json:"typeTags"`
}

// TrailerInput carries the caller-editable trailer fields.
type TrailerInput struct {
	Code     string   `json:"code"`
	Plate    string   `json:"plate"`
	TypeTags []string `json:"typeTags"`
}

// MutationContext is the gate/audit envelope shared by every fleet mutation.
type MutationContext struct {
	Actor           auth.Actor
	RequestID       string
	DeclaredVersion *int64
	IntentConfirmed bool
}

// TractorResult pairs the committed tractor with the new planner meta.
type TractorResult struct {
	Tractor *models.Tractor
	Meta    *models.PlannerMeta
}

// TrailerResult pairs the committed trailer with the new planner meta.
type TrailerResult struct {
	Trailer *models.Trailer
	Meta    *models.PlannerMeta
}

// Service exposes fleet reads and gated mutations.
type Service interface {
	ListTractors(ctx context.Context, includeDeleted bool) ([]models.Tractor, error)
	GetTractor(ctx context.Context, id uuid.UUID) (*models.Tractor, error)
	CreateTractor(ctx context.Context, mc MutationContext, id *uuid.UUID, input TractorInput) (*TractorResult, error)
	UpdateTractor(ctx context.Context, mc MutationContext, id uuid.UUID, input TractorInput) (*TractorResult, error)
	DeleteTractor(ctx context.Context, mc MutationContext, id uuid.UUID) (*models.PlannerMeta, error)

	ListTrailers(ctx context.Context, includeDeleted bool) ([]models.Trailer, error)
	GetTrailer(ctx context.Context, id uuid.UUID) (*models.Trailer, error)
	CreateTrailer(ctx context.Context, mc MutationContext, id *uuid.UUID, input TrailerInput) (*TrailerResult, error)
	UpdateTrailer(ctx context.Context, mc MutationContext, id uuid.UUID, input TrailerInput) (*TrailerResult, error)
	DeleteTrailer(ctx context.Context, mc MutationContext, id uuid.UUID) (*models.PlannerMeta, error)
}
