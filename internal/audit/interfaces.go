package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
	"github.com/planboardhq/planboard-backend/pkg/enums"
	"github.com/planboardhq/planboard-backend/pkg/pagination"
)

// Filters narrows an audit trail listing. Nil fields match everything.
type Filters struct {
	EntityType *enums.EntityType
	EntityID   *string
	Action     *enums.AuditAction
	ActorID    *string
}

// Repository defines persistence operations for the audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context, filters Filters, params pagination.Params) ([]models.AuditEntry, error)
}

// EntryList is one page of audit entries, newest first.
type EntryList struct {
	Items      []models.AuditEntry `json:"items"`
	NextCursor *string             `json:"nextCursor,omitempty"`
}

// Service exposes the read side of the audit trail. Writes go through the
// Recorder inside mutation transactions.
type Service interface {
	List(ctx context.Context, filters Filters, params pagination.Params) (*EntryList, error)
}
