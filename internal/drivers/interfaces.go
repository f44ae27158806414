package drivers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/pkg/auth"
	"github.com/planboardhq/planboard-backend/pkg/db/models"
)

// Repository defines persistence operations for drivers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context, includeDeleted bool) ([]models.Driver, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	Create(ctx context.Context, driver *models.Driver) (*models.Driver, error)
	Update(ctx context.Context, driver *models.Driver) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// DriverInput carries the caller-editable fields. Updates replace all of
// them; the sync client always sends complete entities. WeekAvailability nil
// means every day, an explicit empty slice means none.
type DriverInput struct {
	Name                 string   `json:"name"`
	CanNight             bool     `json:"canNight"`
	SleepsInCab          bool     `json:"sleepsInCab"`
	DoubleMannedEligible bool     `json:"doubleMannedEligible"`
	WeekAvailability     *[]int64 `json:"weekAvailability"`
	Leaves               []string `json:"leaves"`
	Rating               float64  `json:"rating"`
}

// CreateInput creates a driver through the concurrency gate.
type CreateInput struct {
	Actor           auth.Actor
	RequestID       string
	DeclaredVersion *int64
	ID              *uuid.UUID
	Driver          DriverInput
}

// UpdateInput replaces a driver's editable fields.
type UpdateInput struct {
	Actor           auth.Actor
	RequestID       string
	DeclaredVersion *int64
	ID              uuid.UUID
	Driver          DriverInput
}

// DeleteInput soft deletes a driver. IntentConfirmed mirrors the explicit
// delete header; deletes are never implied.
type DeleteInput struct {
	Actor           auth.Actor
	RequestID       string
	DeclaredVersion *int64
	ID              uuid.UUID
	IntentConfirmed bool
}

// MutationResult pairs the committed driver with the meta row carrying the
// new planner version.
type MutationResult struct {
	Driver *models.Driver
	Meta   *models.PlannerMeta
}

// Service exposes driver reads and gated mutations.
type Service interface {
	List(ctx context.Context, includeDeleted bool) ([]models.Driver, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	Create(ctx context.Context, input CreateInput) (*MutationResult, error)
	Update(ctx context.Context, input UpdateInput) (*MutationResult, error)
	Delete(ctx context.Context, input DeleteInput) (*models.PlannerMeta, error)
}
