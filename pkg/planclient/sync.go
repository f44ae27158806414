package planclient

import (
	"context"
	"fmt"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
)

// Engine pushes the difference between two snapshots through the per-entity
// endpoints. Deletion never happens implicitly: an entity missing from the
// draft is simply left alone, and removals go through the explicit-intent
// delete calls outside this engine.
type Engine struct {
	client *Client
}

// NewEngine builds a sync engine around the given client.
func NewEngine(client *Client) (*Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("client required")
	}
	return &Engine{client: client}, nil
}

// Sync applies next (a possibly partial draft) on top of prev against the
// live server and returns the updated snapshot. Collections are processed in
// a fixed order so new fleet and location rows exist before the jobs that
// reference them. Each call declares the version returned by the previous
// one, so a multi-step sync survives its own version bumps. A version
// conflict aborts the remaining steps and surfaces the server meta in a
// ConflictError; steps already committed stand, and the caller should reload
// state before retrying.
func (e *Engine) Sync(ctx context.Context, prev, next Snapshot) (Snapshot, error) {
	draft := next.withFallback(prev)

	var version *int64
	if prev.Meta != nil {
		v := prev.Meta.Version
		version = &v
	}

	result := draft
	calls := 0
	adopt := func(meta Meta) {
		calls++
		v := meta.Version
		version = &v
		updated := models.PlannerMeta{ID: models.PlannerMetaID, WeekStart: meta.WeekStart, Version: meta.Version}
		result.Meta = &updated
	}

	if draft.Meta != nil && (prev.Meta == nil || !stringPtrEqual(prev.Meta.WeekStart, draft.Meta.WeekStart)) {
		meta, err := e.client.UpdateMeta(ctx, version, draft.Meta.WeekStart)
		if err != nil {
			return Snapshot{}, err
		}
		adopt(meta)
	}

	if draft.Settings != nil && (prev.Settings == nil || canonical(settingsPayload(*prev.Settings)) != canonical(settingsPayload(*draft.Settings))) {
		meta, err := e.client.UpdateSettings(ctx, version, *draft.Settings)
		if err != nil {
			return Snapshot{}, err
		}
		adopt(meta)
	}

	drivers := diffCollection(prev.Drivers, draft.Drivers,
		func(d models.Driver) string { return d.ID.String() }, driverPayload)
	for _, d := range drivers.Creates {
		meta, err := e.client.CreateDriver(ctx, version, d)
		if err != nil {
			return Snapshot{}, err
		}
		adopt(meta)
	}
	for _, d := range drivers.Updates {
		meta, err := e.client.UpdateDriver(ctx, version, d)
		if err != nil {
			return Snapshot{}, err
		}
		adopt(meta)
	}

	tractors := diffCollection(prev.Tractors, draft.Tractors,
		func(t models.Tractor) string { return t.ID.String() }, tractorPayload)
	for _, t := range tractors.Creates {
		meta, err := e.client.CreateTractor(ctx, version, t)
		if err != nil {
			return Snapshot{}, err
		}
		adopt(meta)
	}
	for _, t := range tractors.Updates {
		meta, err := e.client.UpdateTractor(ctx, version, t)
		if err != nil {
			return Snapshot{}, err
		}
		adopt(meta)
	}

	trailers := diffCollection(prev.Trailers, draft.Trailers,
		func(t models.Trailer) string { return t.ID.String() }, trailerPayload)
	for _, t := range trailers.Creates {
		meta, err := e.client.CreateTrailer(ctx, version, t)
		if err != nil {
			return Snapshot{}, err
		}
		adopt(meta)
	}
	for _, t := range trailers.Updates {
		meta, err := e.client.UpdateTrailer(ctx, version, t)
		if err != nil {
			return Snapshot{}, err
		}
		adopt(meta)
	}

	locations := diffCollection(prev.Locations, draft.Locations,
		func(l models.Location) string { return l.ID.String() }, locationPayload)
	for _, l := range locations.Creates {
		meta, err := e.client.CreateLocation(ctx, version, l)
		if err != nil {
			return Snapshot{}, err
		}
		adopt(meta)
	}
	for _, l := range locations.Updates {
		meta, err := e.client.UpdateLocation(ctx, version, l)
		if err != nil {
			return Snapshot{}, err
		}
		adopt(meta)
	}

	// Matrix cells are keyed by their route, not their row id, because the
	// entry endpoint upserts by (from, to).
	distances := diffCollection(prev.Distances, draft.Distances,
		func(d models.Distance) string { return d.From + "\x00" + d.To }, distancePayload)
	for _, d := range append(distances.Creates, distances.Updates...) {
		meta, err := e.client.UpsertDistance(ctx, version, d)
		if err != nil {
			return Snapshot{}, err
		}
		adopt(meta)
	}

	jobs := diffCollection(prev.Jobs, draft.Jobs,
		func(j models.Job) string { return j.ID.String() }, jobPayload)
	changed := append(append([]models.Job{}, jobs.Creates...), jobs.Updates...)
	switch {
	case len(changed) == 1:
		var meta Meta
		var err error
		if len(jobs.Creates) == 1 {
			meta, err = e.client.CreateJob(ctx, version, changed[0])
		} else {
			meta, err = e.client.UpdateJob(ctx, version, changed[0])
		}
		if err != nil {
			return Snapshot{}, err
		}
		adopt(meta)
	case len(changed) > 1:
		meta, err := e.client.BatchUpsertJobs(ctx, version, changed)
		if err != nil {
			return Snapshot{}, err
		}
		adopt(meta)
	}

	if calls == 0 {
		return prev, nil
	}
	return result, nil
}
