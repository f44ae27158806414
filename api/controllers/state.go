package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/planboardhq/planboard-backend/api/responses"
	"github.com/planboardhq/planboard-backend/api/validators"
	"github.com/planboardhq/planboard-backend/internal/drivers"
	"github.com/planboardhq/planboard-backend/internal/fleet"
	"github.com/planboardhq/planboard-backend/internal/jobs"
	"github.com/planboardhq/planboard-backend/internal/locations"
	"github.com/planboardhq/planboard-backend/internal/planner"
	"github.com/planboardhq/planboard-backend/internal/schedule"
	pkgerrors "github.com/planboardhq/planboard-backend/pkg/errors"
	"github.com/planboardhq/planboard-backend/pkg/logger"
)

// StateServices bundles everything the combined snapshot endpoint reads from.
type StateServices struct {
	Drivers   drivers.Service
	Fleet     fleet.Service
	Locations locations.Service
	Jobs      jobs.Service
	Planner   planner.Service
}

// GetState returns the whole board in one response so clients can hydrate
// without fanning out. An optional day query adds per-job segments clipped to
// that calendar day, including overnight spillover from the day before.
func GetState(svcs StateServices, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		includeDeleted, err := validators.ParseQueryBool(r, "include_deleted")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		day := strings.TrimSpace(r.URL.Query().Get("day"))
		if day != "" {
			if _, err := time.Parse("2006-01-02", day); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "day must be an ISO date").WithDetails(map[string]any{"field": "day"}))
				return
			}
		}

		driverList, err := svcs.Drivers.List(ctx, includeDeleted)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		tractors, err := svcs.Fleet.ListTractors(ctx, includeDeleted)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		trailers, err := svcs.Fleet.ListTrailers(ctx, includeDeleted)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		locationList, err := svcs.Locations.ListLocations(ctx, includeDeleted)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		distances, err := svcs.Locations.ListDistances(ctx, includeDeleted)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		jobList, err := svcs.Jobs.List(ctx, includeDeleted)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		meta, err := svcs.Planner.GetMeta(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		settings, err := svcs.Planner.GetSettings(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payload := map[string]any{
			"drivers":   driverList,
			"tractors":  tractors,
			"trailers":  trailers,
			"locations": locationList,
			"distances": distances,
			"jobs":      jobList,
			"meta":      meta,
			"settings":  settings,
		}
		if day != "" {
			segments := make(map[string]*schedule.DaySegment)
			for _, job := range jobList {
				if segment := schedule.SegmentForDay(schedule.TimingOf(job), day); segment != nil {
					segments[job.ID.String()] = segment
				}
			}
			payload["segments"] = segments
		}
		responses.WriteSuccess(w, payload)
	}
}
