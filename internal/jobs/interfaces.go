package jobs

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/internal/schedule"
	"github.com/planboardhq/planboard-backend/pkg/auth"
	"github.com/planboardhq/planboard-backend/pkg/db/models"
	"github.com/planboardhq/planboard-backend/pkg/enums"
)

// Repository defines persistence operations for jobs plus the roster and
// pricing reads a job mutation needs inside its transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	List(ctx context.Context, includeDeleted bool) ([]models.Job, error)
	Find(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Create(ctx context.Context, job *models.Job) (*models.Job, error)
	Update(ctx context.Context, job *models.Job) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// LoadState assembles the active roster the conflict validator runs
	// against. Soft-deleted rows are excluded.
	LoadState(ctx context.Context) (schedule.State, error)
	Settings(ctx context.Context) (*models.PlannerSettings, error)
	// DistanceKM returns nil when the matrix has no cell for the pair.
	DistanceKM(ctx context.Context, from, to string) (*float64, error)
}

// JobInput carries the caller-editable job fields. Updates replace the whole
// record with these values.
type JobInput struct {
	Date               *string           `json:"date"`
	Start              *string           `json:"start"`
	DurationHours      *float64          `json:"durationHours"`
	Slot               enums.Slot        `json:"slot"`
	Client             string            `json:"client"`
	Pickup             string            `json:"pickup"`
	Dropoff            string            `json:"dropoff"`
	StartPoint         string            `json:"startPoint"`
	EndPoint           string            `json:"endPoint"`
	AllowStartOverride bool              `json:"allowStartOverride"`
	TractorID          *uuid.UUID        `json:"tractorId"`
	TrailerID          *uuid.UUID        `json:"trailerId"`
	DriverIDs          []uuid.UUID       `json:"driverIds"`
	PricingMode        enums.PricingMode `json:"pricingMode"`
	PriceValue         decimal.Decimal   `json:"priceValue"`
	Notes              string            `json:"notes"`
	Code               string            `json:"code"`
	Color              string            `json:"color"`
}

// MutationContext is the gate/audit envelope shared by every mutation.
type MutationContext struct {
	Actor           auth.Actor
	RequestID       string
	DeclaredVersion *int64
	IntentConfirmed bool
}

// MutationResult pairs the committed job with the new planner meta.
type MutationResult struct {
	Job  *models.Job
	Meta *models.PlannerMeta
}

// BatchItem is one entry of a batched upsert. A nil ID, or an ID with no
// stored row, creates; an existing ID updates. Delete marks an entry the
// client wants removed; the batch endpoint refuses those outright.
type BatchItem struct {
	ID     *uuid.UUID `json:"id"`
	Delete bool       `json:"delete"`
	Job    JobInput   `json:"job"`
}

// BatchResult pairs the committed jobs with the new planner meta. One batch
// bumps the version exactly once.
type BatchResult struct {
	Jobs []models.Job
	Meta *models.PlannerMeta
}

// Service exposes job reads and gated mutations. Every scheduling mutation
// re-runs the conflict validator server-side against the roster inside the
// same transaction.
type Service interface {
	List(ctx context.Context, includeDeleted bool) ([]models.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Create(ctx context.Context, mc MutationContext, id *uuid.UUID, input JobInput) (*MutationResult, error)
	Update(ctx context.Context, mc MutationContext, id uuid.UUID, input JobInput) (*MutationResult, error)
	Delete(ctx context.Context, mc MutationContext, id uuid.UUID) (*models.PlannerMeta, error)
	BatchUpsert(ctx context.Context, mc MutationContext, items []BatchItem) (*BatchResult, error)
}
