package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/planboardhq/planboard-backend/api/responses"
	"github.com/planboardhq/planboard-backend/api/validators"
	"github.com/planboardhq/planboard-backend/internal/drivers"
	"github.com/planboardhq/planboard-backend/pkg/logger"
	"github.com/planboardhq/planboard-backend/pkg/types"
)

// driverRequest is the over-the-wire driver shape. The board's older clients
// send booleans and numbers as strings, and the rating went by several names
// over time, so all of that is coerced here before the service sees it.
type driverRequest struct {
	ID                   *uuid.UUID      `json:"id"`
	Name                 string          `json:"name" validate:"required"`
	CanNight             types.FlexBool  `json:"canNight"`
	SleepsInCab          types.FlexBool  `json:"sleepsInCab"`
	DoubleMannedEligible types.FlexBool  `json:"doubleMannedEligible"`
	WeekAvailability     *[]int64        `json:"weekAvailability"`
	Leaves               []string        `json:"leaves"`
	Rating               types.FlexFloat `json:"rating"`
	Rate                 types.FlexFloat `json:"rate"`
	DriverRating         types.FlexFloat `json:"driverRating"`
}

func (req driverRequest) toInput() drivers.DriverInput {
	rating := req.Rating
	if !rating.Set {
		rating = req.Rate
	}
	if !rating.Set {
		rating = req.DriverRating
	}
	return drivers.DriverInput{
		Name:                 req.Name,
		CanNight:             req.CanNight.Or(false),
		SleepsInCab:          req.SleepsInCab.Or(false),
		DoubleMannedEligible: req.DoubleMannedEligible.Or(false),
		WeekAvailability:     req.WeekAvailability,
		Leaves:               req.Leaves,
		Rating:               rating.Clamped(0, 5),
	}
}

func ListDrivers(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeDeleted, err := validators.ParseQueryBool(r, "include_deleted")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), includeDeleted)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"drivers": list})
	}
}

func GetDriver(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "driverId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		driver, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"driver": driver})
	}
}

func CreateDriver(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req driverRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), drivers.CreateInput{
			Actor:           env.Actor,
			RequestID:       env.RequestID,
			DeclaredVersion: env.DeclaredVersion,
			ID:              req.ID,
			Driver:          req.toInput(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"driver": result.Driver,
			"meta":   metaPayload(result.Meta),
		})
	}
}

func UpdateDriver(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseIDParam(r, "driverId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req driverRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Update(r.Context(), drivers.UpdateInput{
			Actor:           env.Actor,
			RequestID:       env.RequestID,
			DeclaredVersion: env.DeclaredVersion,
			ID:              id,
			Driver:          req.toInput(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"driver": result.Driver,
			"meta":   metaPayload(result.Meta),
		})
	}
}

func DeleteDriver(svc drivers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseIDParam(r, "driverId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		meta, err := svc.Delete(r.Context(), drivers.DeleteInput{
			Actor:           env.Actor,
			RequestID:       env.RequestID,
			DeclaredVersion: env.DeclaredVersion,
			ID:              id,
			IntentConfirmed: env.IntentConfirmed,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"meta": metaPayload(meta)})
	}
}
