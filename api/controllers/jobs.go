package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/planboardhq/planboard-backend/api/responses"
	"github.com/planboardhq/planboard-backend/api/validators"
	"github.com/planboardhq/planboard-backend/internal/jobs"
	"github.com/planboardhq/planboard-backend/pkg/enums"
	"github.com/planboardhq/planboard-backend/pkg/logger"
	"github.com/planboardhq/planboard-backend/pkg/types"
)

type jobRequest struct {
	ID                 *uuid.UUID        `json:"id"`
	Date               *string           `json:"date"`
	Start              *string           `json:"start"`
	DurationHours      types.FlexFloat   `json:"durationHours"`
	Slot               enums.Slot        `json:"slot"`
	Client             string            `json:"client"`
	Pickup             string            `json:"pickup"`
	Dropoff            string            `json:"dropoff"`
	StartPoint         string            `json:"startPoint"`
	EndPoint           string            `json:"endPoint"`
	AllowStartOverride types.FlexBool    `json:"allowStartOverride"`
	TractorID          *uuid.UUID        `json:"tractorId"`
	TrailerID          *uuid.UUID        `json:"trailerId"`
	DriverIDs          []uuid.UUID       `json:"driverIds"`
	PricingMode        enums.PricingMode `json:"pricingMode"`
	PriceValue         decimal.Decimal   `json:"priceValue"`
	Notes              string            `json:"notes"`
	Code               string            `json:"code"`
	Color              string            `json:"color"`
}

func (req jobRequest) toInput() jobs.JobInput {
	return jobs.JobInput{
		Date:               req.Date,
		Start:              req.Start,
		DurationHours:      req.DurationHours.Ptr(),
		Slot:               req.Slot,
		Client:             req.Client,
		Pickup:             req.Pickup,
		Dropoff:            req.Dropoff,
		StartPoint:         req.StartPoint,
		EndPoint:           req.EndPoint,
		AllowStartOverride: req.AllowStartOverride.Or(false),
		TractorID:          req.TractorID,
		TrailerID:          req.TrailerID,
		DriverIDs:          req.DriverIDs,
		PricingMode:        req.PricingMode,
		PriceValue:         req.PriceValue,
		Notes:              req.Notes,
		Code:               req.Code,
		Color:              req.Color,
	}
}

type batchRequest struct {
	Jobs []batchItemRequest `json:"jobs" validate:"required,min=1,dive"`
}

type batchItemRequest struct {
	ID     *uuid.UUID `json:"id"`
	Delete bool       `json:"delete"`
	jobRequest
}

func jobsMC(env requestEnvelope) jobs.MutationContext {
	return jobs.MutationContext{
		Actor:           env.Actor,
		RequestID:       env.RequestID,
		DeclaredVersion: env.DeclaredVersion,
		IntentConfirmed: env.IntentConfirmed,
	}
}

func ListJobs(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
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
		responses.WriteSuccess(w, map[string]any{"jobs": list})
	}
}

func GetJob(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "jobId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		job, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"job": job})
	}
}

func CreateJob(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req jobRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Create(r.Context(), jobsMC(env), req.ID, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"job":  result.Job,
			"meta": metaPayload(result.Meta),
		})
	}
}

func UpdateJob(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseIDParam(r, "jobId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req jobRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Update(r.Context(), jobsMC(env), id, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"job":  result.Job,
			"meta": metaPayload(result.Meta),
		})
	}
}

func DeleteJob(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseIDParam(r, "jobId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		meta, err := svc.Delete(r.Context(), jobsMC(env), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"meta": metaPayload(meta)})
	}
}

// BatchUpsertJobs lands several creates and updates in one transaction with
// a single version bump. The sync engine uses this when a board drop moves
// more than one job at once.
func BatchUpsertJobs(svc jobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req batchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]jobs.BatchItem, 0, len(req.Jobs))
		for _, item := range req.Jobs {
			items = append(items, jobs.BatchItem{
				ID:     item.ID,
				Delete: item.Delete,
				Job:    item.toInput(),
			})
		}
		result, err := svc.BatchUpsert(r.Context(), jobsMC(env), items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"jobs": result.Jobs,
			"meta": metaPayload(result.Meta),
		})
	}
}
