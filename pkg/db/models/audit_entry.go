package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/planboardhq/planboard-backend/pkg/enums"
)

// AuditEntry is an append-only record of who changed what. Entries are
// written inside the same transaction as the mutation they document and are
// never updated or deleted.
type AuditEntry struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActorID    string            `gorm:"column:actor_id;not null" json:"actorId"`
	ActorEmail string            `gorm:"column:actor_email" json:"actorEmail"`
	ActorRole  enums.ActorRole   `gorm:"column:actor_role" json:"actorRole"`
	Action     enums.AuditAction `gorm:"column:action;not null" json:"action"`
	EntityType enums.EntityType  `gorm:"column:entity_type;not null;index:idx_audit_entity" json:"entityType"`
	EntityID   string            `gorm:"column:entity_id;index:idx_audit_entity" json:"entityId"`
	Before     json.RawMessage   `gorm:"column:before;type:jsonb" json:"before,omitempty"`
	After      json.RawMessage   `gorm:"column:after;type:jsonb" json:"after,omitempty"`
	RequestID  string            `gorm:"column:request_id" json:"requestId"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
