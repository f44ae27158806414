package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/planboardhq/planboard-backend/api/controllers"
	"github.com/planboardhq/planboard-backend/api/middleware"
	"github.com/planboardhq/planboard-backend/internal/audit"
	"github.com/planboardhq/planboard-backend/internal/drivers"
	"github.com/planboardhq/planboard-backend/internal/fleet"
	"github.com/planboardhq/planboard-backend/internal/jobs"
	"github.com/planboardhq/planboard-backend/internal/locations"
	"github.com/planboardhq/planboard-backend/internal/planner"
	"github.com/planboardhq/planboard-backend/internal/realtime"
	"github.com/planboardhq/planboard-backend/pkg/config"
	"github.com/planboardhq/planboard-backend/pkg/enums"
	"github.com/planboardhq/planboard-backend/pkg/logger"
)

// Dependencies carries everything the router wires together. All fields are
// required except Hub, which disables the events endpoint when nil.
type Dependencies struct {
	Config *config.Config
	Logger *logger.Logger

	DB    controllers.Pinger
	Redis controllers.Pinger
	Hub   *realtime.Hub

	Drivers   drivers.Service
	Fleet     fleet.Service
	Locations locations.Service
	Jobs      jobs.Service
	Planner   planner.Service
	Audit     audit.Service
}

// NewRouter builds the HTTP surface. Reads are open to any authenticated
// actor; every mutation additionally requires the admin role.
func NewRouter(deps Dependencies) http.Handler {
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.CORS())

	r.Get("/health/live", controllers.HealthLive())
	r.Get("/health/ready", controllers.HealthReady(logg, deps.DB, deps.Redis))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.Config.JWT, logg))

		r.Get("/state", controllers.GetState(controllers.StateServices{
			Drivers:   deps.Drivers,
			Fleet:     deps.Fleet,
			Locations: deps.Locations,
			Jobs:      deps.Jobs,
			Planner:   deps.Planner,
		}, logg))

		r.Get("/meta", controllers.GetMeta(deps.Planner, logg))
		r.Get("/settings", controllers.GetSettings(deps.Planner, logg))

		r.Get("/drivers", controllers.ListDrivers(deps.Drivers, logg))
		r.Get("/drivers/{driverId}", controllers.GetDriver(deps.Drivers, logg))

		r.Get("/tractors", controllers.ListTractors(deps.Fleet, logg))
		r.Get("/tractors/{tractorId}", controllers.GetTractor(deps.Fleet, logg))
		r.Get("/trailers", controllers.ListTrailers(deps.Fleet, logg))
		r.Get("/trailers/{trailerId}", controllers.GetTrailer(deps.Fleet, logg))

		r.Get("/locations", controllers.ListLocations(deps.Locations, logg))
		r.Get("/locations/{locationId}", controllers.GetLocation(deps.Locations, logg))
		r.Get("/distances", controllers.ListDistances(deps.Locations, logg))

		r.Get("/jobs", controllers.ListJobs(deps.Jobs, logg))
		r.Get("/jobs/{jobId}", controllers.GetJob(deps.Jobs, logg))

		r.Get("/audit", controllers.ListAudit(deps.Audit, logg))

		if deps.Hub != nil {
			r.Get("/events", deps.Hub.HandleWS)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.ActorRoleAdmin, logg))

			r.Patch("/meta", controllers.UpdateMeta(deps.Planner, logg))
			r.Patch("/settings", controllers.UpdateSettings(deps.Planner, logg))

			r.Post("/drivers", controllers.CreateDriver(deps.Drivers, logg))
			r.Patch("/drivers/{driverId}", controllers.UpdateDriver(deps.Drivers, logg))
			r.Delete("/drivers/{driverId}", controllers.DeleteDriver(deps.Drivers, logg))

			r.Post("/tractors", controllers.CreateTractor(deps.Fleet, logg))
			r.Patch("/tractors/{tractorId}", controllers.UpdateTractor(deps.Fleet, logg))
			r.Delete("/tractors/{tractorId}", controllers.DeleteTractor(deps.Fleet, logg))

			r.Post("/trailers", controllers.CreateTrailer(deps.Fleet, logg))
			r.Patch("/trailers/{trailerId}", controllers.UpdateTrailer(deps.Fleet, logg))
			r.Delete("/trailers/{trailerId}", controllers.DeleteTrailer(deps.Fleet, logg))

			r.Post("/locations", controllers.CreateLocation(deps.Locations, logg))
			r.Patch("/locations/{locationId}", controllers.UpdateLocation(deps.Locations, logg))
			r.Delete("/locations/{locationId}", controllers.DeleteLocation(deps.Locations, logg))

			r.Put("/distances", controllers.ReplaceMatrix(deps.Locations, logg))
			r.Post("/distances/entry", controllers.UpsertDistance(deps.Locations, logg))
			r.Delete("/distances/entry", controllers.DeleteDistance(deps.Locations, logg))

			r.Post("/jobs", controllers.CreateJob(deps.Jobs, logg))
			r.Post("/jobs/batch", controllers.BatchUpsertJobs(deps.Jobs, logg))
			r.Patch("/jobs/{jobId}", controllers.UpdateJob(deps.Jobs, logg))
			r.Delete("/jobs/{jobId}", controllers.DeleteJob(deps.Jobs, logg))
		})
	})

	return r
}
