package controllers

import (
	"net/http"
	"strings"

	"github.com/planboardhq/planboard-backend/api/responses"
	"github.com/planboardhq/planboard-backend/api/validators"
	"github.com/planboardhq/planboard-backend/internal/audit"
	"github.com/planboardhq/planboard-backend/pkg/enums"
	pkgerrors "github.com/planboardhq/planboard-backend/pkg/errors"
	"github.com/planboardhq/planboard-backend/pkg/logger"
	"github.com/planboardhq/planboard-backend/pkg/pagination"
)

func ListAudit(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := auditFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}
		list, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"entries":    list.Items,
			"nextCursor": list.NextCursor,
		})
	}
}

func auditFilters(r *http.Request) (audit.Filters, error) {
	var filters audit.Filters
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("entity_type")); raw != "" {
		entityType := enums.EntityType(raw)
		if !entityType.IsValid() {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "unknown entity type").WithDetails(map[string]any{"field": "entity_type"})
		}
		filters.EntityType = &entityType
	}
	if raw := strings.TrimSpace(query.Get("entity_id")); raw != "" {
		filters.EntityID = &raw
	}
	if raw := strings.TrimSpace(query.Get("action")); raw != "" {
		action := enums.AuditAction(raw)
		if !action.IsValid() {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "unknown audit action").WithDetails(map[string]any{"field": "action"})
		}
		filters.Action = &action
	}
	if raw := strings.TrimSpace(query.Get("actor_id")); raw != "" {
		filters.ActorID = &raw
	}
	return filters, nil
}
