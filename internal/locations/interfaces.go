package locations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/pkg/auth"
	"github.com/planboardhq/planboard-backend/pkg/db/models"
)

// Repository defines persistence operations for locations and the distance
// matrix.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ListLocations(ctx context.Context, includeDeleted bool) ([]models.Location, error)
	FindLocation(ctx context.Context, id uuid.UUID) (*models.Location, error)
	CreateLocation(ctx context.Context, location *models.Location) (*models.Location, error)
	UpdateLocation(ctx context.Context, location *models.Location) error
	SoftDeleteLocation(ctx context.Context, id uuid.UUID) error

	ListDistances(ctx context.Context, includeDeleted bool) ([]models.Distance, error)
	FindDistance(ctx context.Context, from, to string) (*models.Distance, error)
	CreateDistance(ctx context.Context, distance *models.Distance) (*models.Distance, error)
	UpdateDistanceKM(ctx context.Context, id uuid.UUID, km float64) error
	SoftDeleteDistance(ctx context.Context, id uuid.UUID) error
	RenameInDistances(ctx context.Context, oldName, newName string) error
	DeleteDistancesForLocation(ctx context.Context, name string) error
	ReplaceDistances(ctx context.Context, distances []models.Distance) error
}

// LocationInput carries the caller-editable location fields.
type LocationInput struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
}

// DistanceInput is one directed matrix cell.
type DistanceInput struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	KM   float64 `json:"km"`
}

// MutationContext is the gate/audit envelope shared by every mutation.
type MutationContext struct {
	Actor           auth.Actor
	RequestID       string
	DeclaredVersion *int64
	IntentConfirmed bool
}

// LocationResult pairs the committed location with the new planner meta.
type LocationResult struct {
	Location *models.Location
	Meta     *models.PlannerMeta
}

// DistanceResult pairs the committed distance with the new planner meta.
type DistanceResult struct {
	Distance *models.Distance
	Meta     *models.PlannerMeta
}

// MatrixResult pairs the committed matrix with the new planner meta.
type MatrixResult struct {
	Distances []models.Distance
	Meta      *models.PlannerMeta
}

// Service exposes location and distance reads plus gated mutations. A
// location rename cascades through the distance matrix, which is keyed by
// name.
type Service interface {
	ListLocations(ctx context.Context, includeDeleted bool) ([]models.Location, error)
	GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error)
	CreateLocation(ctx context.Context, mc MutationContext, id *uuid.UUID, input LocationInput) (*LocationResult, error)
	UpdateLocation(ctx context.Context, mc MutationContext, id uuid.UUID, input LocationInput) (*LocationResult, error)
	DeleteLocation(ctx context.Context, mc MutationContext, id uuid.UUID) (*models.PlannerMeta, error)

	ListDistances(ctx context.Context, includeDeleted bool) ([]models.Distance, error)
	UpsertDistance(ctx context.Context, mc MutationContext, input DistanceInput) (*DistanceResult, error)
	DeleteDistance(ctx context.Context, mc MutationContext, from, to string) (*models.PlannerMeta, error)
	ReplaceMatrix(ctx context.Context, mc MutationContext, inputs []DistanceInput) (*MatrixResult, error)
}
