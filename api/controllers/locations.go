package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/planboardhq/planboard-backend/api/responses"
	"github.com/planboardhq/planboard-backend/api/validators"
	"github.com/planboardhq/planboard-backend/internal/locations"
	"github.com/planboardhq/planboard-backend/pkg/logger"
)

type locationRequest struct {
	ID   *uuid.UUID `json:"id"`
	Name string     `json:"name" validate:"required"`
	Lat  *float64   `json:"lat"`
	Lng  *float64   `json:"lng"`
}

type distanceRequest struct {
	From string  `json:"from" validate:"required"`
	To   string  `json:"to" validate:"required"`
	KM   float64 `json:"km" validate:"min=0"`
}

type matrixRequest struct {
	Distances []distanceRequest `json:"distances" validate:"required,dive"`
}

type distanceKeyRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

func locationsMC(env requestEnvelope) locations.MutationContext {
	return locations.MutationContext{
		Actor:           env.Actor,
		RequestID:       env.RequestID,
		DeclaredVersion: env.DeclaredVersion,
		IntentConfirmed: env.IntentConfirmed,
	}
}

func ListLocations(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeDeleted, err := validators.ParseQueryBool(r, "include_deleted")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListLocations(r.Context(), includeDeleted)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"locations": list})
	}
}

func GetLocation(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		location, err := svc.GetLocation(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"location": location})
	}
}

func CreateLocation(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req locationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CreateLocation(r.Context(), locationsMC(env), req.ID,
			locations.LocationInput{Name: req.Name, Lat: req.Lat, Lng: req.Lng})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"location": result.Location,
			"meta":     metaPayload(result.Meta),
		})
	}
}

func UpdateLocation(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseIDParam(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req locationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.UpdateLocation(r.Context(), locationsMC(env), id,
			locations.LocationInput{Name: req.Name, Lat: req.Lat, Lng: req.Lng})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"location": result.Location,
			"meta":     metaPayload(result.Meta),
		})
	}
}

func DeleteLocation(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseIDParam(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		meta, err := svc.DeleteLocation(r.Context(), locationsMC(env), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"meta": metaPayload(meta)})
	}
}

func ListDistances(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeDeleted, err := validators.ParseQueryBool(r, "include_deleted")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListDistances(r.Context(), includeDeleted)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"distances": list})
	}
}

func UpsertDistance(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req distanceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.UpsertDistance(r.Context(), locationsMC(env),
			locations.DistanceInput{From: req.From, To: req.To, KM: req.KM})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"distance": result.Distance,
			"meta":     metaPayload(result.Meta),
		})
	}
}

func DeleteDistance(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req distanceKeyRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		meta, err := svc.DeleteDistance(r.Context(), locationsMC(env), req.From, req.To)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"meta": metaPayload(meta)})
	}
}

func ReplaceMatrix(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req matrixRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inputs := make([]locations.DistanceInput, 0, len(req.Distances))
		for _, cell := range req.Distances {
			inputs = append(inputs, locations.DistanceInput{From: cell.From, To: cell.To, KM: cell.KM})
		}
		result, err := svc.ReplaceMatrix(r.Context(), locationsMC(env), inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"distances": result.Distances,
			"meta":      metaPayload(result.Meta),
		})
	}
}
