package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/planboardhq/planboard-backend/api/responses"
	"github.com/planboardhq/planboard-backend/api/validators"
	"github.com/planboardhq/planboard-backend/internal/fleet"
	"github.com/planboardhq/planboard-backend/pkg/logger"
	"github.com/planboardhq/planboard-backend/pkg/types"
)

type tractorRequest struct {
	ID           *uuid.UUID     `json:"id"`
	Code         string         `json:"code" validate:"required"`
	Plate        string         `json:"plate"`
	Location     string         `json:"location"`
	DoubleManned types.FlexBool `json:"doubleManned"`
	TypeTags     []string       `json:"typeTags"`
}

func (req tractorRequest) toInput() fleet.TractorInput {
	return fleet.TractorInput{
		Code:         req.Code,
		Plate:        req.Plate,
		Location:     req.Location,
		DoubleManned: req.DoubleManned.Or(false),
		TypeTags:     req.TypeTags,
	}
}

type trailerRequest struct {
	ID       *uuid.UUID `json:"id"`
	Code     string     `json:"code" validate:"required"`
	Plate    string     `json:"plate"`
	TypeTags []string   `json:"typeTags"`
}

func (req trailerRequest) toInput() fleet.TrailerInput {
	return fleet.TrailerInput{Code: req.Code, Plate: req.Plate, TypeTags: req.TypeTags}
}

func fleetMC(env requestEnvelope) fleet.MutationContext {
	return fleet.MutationContext{
		Actor:           env.Actor,
		RequestID:       env.RequestID,
		DeclaredVersion: env.DeclaredVersion,
		IntentConfirmed: env.IntentConfirmed,
	}
}

func ListTractors(svc fleet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeDeleted, err := validators.ParseQueryBool(r, "include_deleted")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListTractors(r.Context(), includeDeleted)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"tractors": list})
	}
}

func GetTractor(svc fleet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "tractorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tractor, err := svc.GetTractor(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"tractor": tractor})
	}
}

func CreateTractor(svc fleet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req tractorRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CreateTractor(r.Context(), fleetMC(env), req.ID, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"tractor": result.Tractor,
			"meta":    metaPayload(result.Meta),
		})
	}
}

func UpdateTractor(svc fleet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseIDParam(r, "tractorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req tractorRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.UpdateTractor(r.Context(), fleetMC(env), id, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"tractor": result.Tractor,
			"meta":    metaPayload(result.Meta),
		})
	}
}

func DeleteTractor(svc fleet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseIDParam(r, "tractorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		meta, err := svc.DeleteTractor(r.Context(), fleetMC(env), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"meta": metaPayload(meta)})
	}
}

func ListTrailers(svc fleet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeDeleted, err := validators.ParseQueryBool(r, "include_deleted")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListTrailers(r.Context(), includeDeleted)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"trailers": list})
	}
}

func GetTrailer(svc fleet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "trailerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		trailer, err := svc.GetTrailer(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"trailer": trailer})
	}
}

func CreateTrailer(svc fleet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req trailerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CreateTrailer(r.Context(), fleetMC(env), req.ID, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"trailer": result.Trailer,
			"meta":    metaPayload(result.Meta),
		})
	}
}

func UpdateTrailer(svc fleet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseIDParam(r, "trailerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req trailerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.UpdateTrailer(r.Context(), fleetMC(env), id, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"trailer": result.Trailer,
			"meta":    metaPayload(result.Meta),
		})
	}
}

func DeleteTrailer(svc fleet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseIDParam(r, "trailerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		meta, err := svc.DeleteTrailer(r.Context(), fleetMC(env), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"meta": metaPayload(meta)})
	}
}
