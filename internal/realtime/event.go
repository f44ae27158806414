package realtime

import "encoding/json"

// Event is the change notification fanned out to connected planners after a
// mutation commits. Version carries the planner version the mutation
// produced so clients know whether they are stale.
type Event struct {
	Collection string `json:"collection"`
	Action     string `json:"action"`
	EntityID   string `json:"entityId,omitempty"`
	Version    int64  `json:"version"`
}

// Encode renders the event payload for the wire.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
