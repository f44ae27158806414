package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/pkg/auth"
	"github.com/planboardhq/planboard-backend/pkg/db/models"
	"github.com/planboardhq/planboard-backend/pkg/enums"
	"github.com/planboardhq/planboard-backend/pkg/logger"
)

// unserializableMarker replaces a snapshot whose JSON encoding failed so the
// trail row is still written. A failed snapshot must never abort the mutation
// it documents.
var unserializableMarker = json.RawMessage(`{"_unserializable":true}`)

// Change describes one mutation for the audit trail. Before and After hold
// the entity snapshots around the change; either may be nil for creates and
// deletes respectively.
type Change struct {
	Actor      auth.Actor
	Action     enums.AuditAction
	EntityType enums.EntityType
	EntityID   string
	Before     any
	After      any
	RequestID  string
}

// Recorder writes audit entries inside the caller's transaction.
type Recorder struct {
	log *logger.Logger
}

// NewRecorder builds an audit recorder.
func NewRecorder(log *logger.Logger) *Recorder {
	return &Recorder{log: log}
}

// Record inserts one audit entry using the provided transaction handle. The
// insert shares the mutation's commit or rollback fate.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, ch Change) error {
	entry := models.AuditEntry{
		ID:         uuid.New(),
		ActorID:    ch.Actor.ID,
		ActorEmail: ch.Actor.Email,
		ActorRole:  ch.Actor.Role,
		Action:     ch.Action,
		EntityType: ch.EntityType,
		EntityID:   ch.EntityID,
		Before:     r.snapshot(ctx, ch.Before),
		After:      r.snapshot(ctx, ch.After),
		RequestID:  ch.RequestID,
	}
	return tx.WithContext(ctx).Create(&entry).Error
}

func (r *Recorder) snapshot(ctx context.Context, v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		if r.log != nil {
			r.log.Warn(ctx, "audit snapshot not serializable: "+err.Error())
		}
		return unserializableMarker
	}
	return raw
}
