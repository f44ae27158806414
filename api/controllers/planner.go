package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/planboardhq/planboard-backend/api/responses"
	"github.com/planboardhq/planboard-backend/api/validators"
	"github.com/planboardhq/planboard-backend/internal/planner"
	dbtypes "github.com/planboardhq/planboard-backend/pkg/db/types"
	"github.com/planboardhq/planboard-backend/pkg/logger"
)

type metaRequest struct {
	WeekStart *string `json:"weekStart"`
}

type settingsRequest struct {
	PerKMRate            *decimal.Decimal   `json:"perKmRate"`
	HourlyDriverCost     *decimal.Decimal   `json:"hourlyDriverCost"`
	NightPremium         *decimal.Decimal   `json:"nightPremium"`
	TrailerTypeDailyCost dbtypes.DecimalMap `json:"trailerTypeDailyCost"`
}

func GetMeta(svc planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, err := svc.GetMeta(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"meta": meta})
	}
}

func UpdateMeta(svc planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req metaRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		meta, err := svc.UpdateMeta(r.Context(), planner.UpdateMetaInput{
			Actor:           env.Actor,
			RequestID:       env.RequestID,
			DeclaredVersion: env.DeclaredVersion,
			WeekStart:       req.WeekStart,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"meta": meta})
	}
}

func GetSettings(svc planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := svc.GetSettings(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"settings": settings})
	}
}

func UpdateSettings(svc planner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env, err := envelopeFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req settingsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.UpdateSettings(r.Context(), planner.UpdateSettingsInput{
			Actor:                env.Actor,
			RequestID:            env.RequestID,
			DeclaredVersion:      env.DeclaredVersion,
			PerKMRate:            req.PerKMRate,
			HourlyDriverCost:     req.HourlyDriverCost,
			NightPremium:         req.NightPremium,
			TrailerTypeDailyCost: req.TrailerTypeDailyCost,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"settings": result.Settings,
			"meta":     metaPayload(result.Meta),
		})
	}
}
