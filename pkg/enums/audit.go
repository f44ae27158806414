package enums

import "fmt"

// AuditAction categorizes what a mutation did to an entity.
type AuditAction string

const (
	AuditActionCreate  AuditAction = "create"
	AuditActionUpdate  AuditAction = "update"
	AuditActionDelete  AuditAction = "delete"
	AuditActionReplace AuditAction = "replace"
)

var validAuditActions = []AuditAction{
	AuditActionCreate,
	AuditActionUpdate,
	AuditActionDelete,
	AuditActionReplace,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// EntityType names the collection a mutation touched. The same names key the
// realtime change events and the sync engine's collection ordering.
type EntityType string

const (
	EntityDriver   EntityType = "driver"
	EntityTractor  EntityType = "tractor"
	EntityTrailer  EntityType = "trailer"
	EntityLocation EntityType = "location"
	EntityDistance EntityType = "distance"
	EntityJob      EntityType = "job"
	EntityMeta     EntityType = "meta"
	EntitySettings EntityType = "settings"
)

var validEntityTypes = []EntityType{
	EntityDriver,
	EntityTractor,
	EntityTrailer,
	EntityLocation,
	EntityDistance,
	EntityJob,
	EntityMeta,
	EntitySettings,
}

// String implements fmt.Stringer.
func (e EntityType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EntityType.
func (e EntityType) IsValid() bool {
	for _, candidate := range validEntityTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEntityType converts raw input into an EntityType.
func ParseEntityType(value string) (EntityType, error) {
	for _, candidate := range validEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity type %q", value)
}
