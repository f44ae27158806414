package planclient

import (
	"encoding/json"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
)

// Snapshot is a full client-side copy of the board. A nil collection slice
// means "this draft never touched that collection", not "empty"; Sync
// substitutes the previous snapshot's collection before diffing so a screen
// editing only drivers can never wipe the jobs it never loaded.
type Snapshot struct {
	Meta      *models.PlannerMeta
	Settings  *models.PlannerSettings
	Drivers   []models.Driver
	Tractors  []models.Tractor
	Trailers  []models.Trailer
	Locations []models.Location
	Distances []models.Distance
	Jobs      []models.Job
}

// withFallback fills every untouched (nil) part of the draft from prev.
func (s Snapshot) withFallback(prev Snapshot) Snapshot {
	out := s
	if out.Meta == nil {
		out.Meta = prev.Meta
	}
	if out.Settings == nil {
		out.Settings = prev.Settings
	}
	if out.Drivers == nil {
		out.Drivers = prev.Drivers
	}
	if out.Tractors == nil {
		out.Tractors = prev.Tractors
	}
	if out.Trailers == nil {
		out.Trailers = prev.Trailers
	}
	if out.Locations == nil {
		out.Locations = prev.Locations
	}
	if out.Distances == nil {
		out.Distances = prev.Distances
	}
	if out.Jobs == nil {
		out.Jobs = prev.Jobs
	}
	return out
}

// canonical returns the JSON encoding used for payload equality. Map keys
// are sorted by encoding/json, so equal payloads encode identically.
func canonical(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
