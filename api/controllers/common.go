package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/planboardhq/planboard-backend/api/middleware"
	"github.com/planboardhq/planboard-backend/api/validators"
	"github.com/planboardhq/planboard-backend/pkg/auth"
	"github.com/planboardhq/planboard-backend/pkg/db/models"
	pkgerrors "github.com/planboardhq/planboard-backend/pkg/errors"
)

// requestEnvelope is the per-request mutation context every gated write
// needs: who is acting, which planner version they saw, and whether a delete
// was explicitly confirmed.
type requestEnvelope struct {
	Actor           auth.Actor
	RequestID       string
	DeclaredVersion *int64
	IntentConfirmed bool
}

func envelopeFrom(r *http.Request) (requestEnvelope, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return requestEnvelope{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	declared, err := validators.DeclaredVersion(r)
	if err != nil {
		return requestEnvelope{}, err
	}
	return requestEnvelope{
		Actor:           actor,
		RequestID:       middleware.RequestIDFromContext(r.Context()),
		DeclaredVersion: declared,
		IntentConfirmed: validators.DeleteIntent(r),
	}, nil
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid id").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

// metaPayload is the shared-state stamp attached to every mutation response.
func metaPayload(meta *models.PlannerMeta) map[string]any {
	if meta == nil {
		return nil
	}
	return map[string]any{
		"weekStart": meta.WeekStart,
		"version":   meta.Version,
	}
}
