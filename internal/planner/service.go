package planner

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/internal/audit"
	"github.com/planboardhq/planboard-backend/internal/realtime"
	"github.com/planboardhq/planboard-backend/pkg/auth"
	"github.com/planboardhq/planboard-backend/pkg/db/models"
	dbtypes "github.com/planboardhq/planboard-backend/pkg/db/types"
	"github.com/planboardhq/planboard-backend/pkg/enums"
	pkgerrors "github.com/planboardhq/planboard-backend/pkg/errors"
	"github.com/planboardhq/planboard-backend/pkg/metrics"
)

const weekStartLayout = "2006-01-02"

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, ch audit.Change) error
}

type changeAnnouncer interface {
	Announce(ctx context.Context, event realtime.Event)
}

// UpdateMetaInput replaces the planner's week anchor. WeekStart nil clears
// it; the meta row has no other caller-editable fields.
type UpdateMetaInput struct {
	Actor           auth.Actor
	RequestID       string
	DeclaredVersion *int64
	WeekStart       *string
}

// UpdateSettingsInput patches the pricing configuration. Nil fields are left
// unchanged; a non-nil TrailerTypeDailyCost replaces the whole map.
type UpdateSettingsInput struct {
	Actor                auth.Actor
	RequestID            string
	DeclaredVersion      *int64
	PerKMRate            *decimal.Decimal
	HourlyDriverCost     *decimal.Decimal
	NightPremium         *decimal.Decimal
	TrailerTypeDailyCost dbtypes.DecimalMap
}

// SettingsResult pairs the committed settings with the meta row so callers
// can report the new planner version.
type SettingsResult struct {
	Settings *models.PlannerSettings
	Meta     *models.PlannerMeta
}

type service struct {
	gate      *Gate
	repo      Repository
	auditor   auditRecorder
	announcer changeAnnouncer
	metrics   *metrics.PlannerMetrics
}

// NewService builds the meta/settings service.
func NewService(gate *Gate, repo Repository, auditor auditRecorder, announcer changeAnnouncer, m *metrics.PlannerMetrics) (Service, error) {
	if gate == nil {
		return nil, fmt.Errorf("planner gate required")
	}
	if repo == nil {
		return nil, fmt.Errorf("planner repository required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{gate: gate, repo: repo, auditor: auditor, announcer: announcer, metrics: m}, nil
}

func (s *service) GetMeta(ctx context.Context) (*models.PlannerMeta, error) {
	return s.repo.GetMeta(ctx)
}

func (s *service) GetSettings(ctx context.Context) (*models.PlannerSettings, error) {
	return s.repo.GetSettings(ctx)
}

func (s *service) UpdateMeta(ctx context.Context, input UpdateMetaInput) (*models.PlannerMeta, error) {
	if input.Actor.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.WeekStart != nil {
		if _, err := time.Parse(weekStartLayout, *input.WeekStart); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "weekStart must be an ISO date")
		}
	}

	meta, err := s.gate.Mutate(ctx, input.DeclaredVersion, func(tx *gorm.DB, meta *models.PlannerMeta) error {
		before := *meta
		meta.WeekStart = input.WeekStart

		after := *meta
		after.Version = meta.Version + 1
		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      input.Actor,
			Action:     enums.AuditActionUpdate,
			EntityType: enums.EntityMeta,
			EntityID:   strconv.Itoa(models.PlannerMetaID),
			Before:     before,
			After:      after,
			RequestID:  input.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation("meta", "update")
	s.announce(ctx, realtime.Event{Collection: "meta", Action: "update", Version: meta.Version})
	return meta, nil
}

func (s *service) UpdateSettings(ctx context.Context, input UpdateSettingsInput) (*SettingsResult, error) {
	if input.Actor.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if err := validateRates(input); err != nil {
		return nil, err
	}

	var committed *models.PlannerSettings
	meta, err := s.gate.Mutate(ctx, input.DeclaredVersion, func(tx *gorm.DB, meta *models.PlannerMeta) error {
		repo := s.repo.WithTx(tx)
		settings, err := repo.GetSettings(ctx)
		if err != nil {
			return err
		}
		before := *settings

		if input.PerKMRate != nil {
			settings.PerKMRate = *input.PerKMRate
		}
		if input.HourlyDriverCost != nil {
			settings.HourlyDriverCost = *input.HourlyDriverCost
		}
		if input.NightPremium != nil {
			settings.NightPremium = *input.NightPremium
		}
		if input.TrailerTypeDailyCost != nil {
			settings.TrailerTypeDailyCost = input.TrailerTypeDailyCost
		}

		if err := repo.SaveSettings(ctx, settings); err != nil {
			return err
		}
		committed = settings

		return s.auditor.Record(ctx, tx, audit.Change{
			Actor:      input.Actor,
			Action:     enums.AuditActionUpdate,
			EntityType: enums.EntitySettings,
			EntityID:   strconv.Itoa(models.PlannerSettingsID),
			Before:     before,
			After:      *settings,
			RequestID:  input.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMutation("settings", "update")
	s.announce(ctx, realtime.Event{Collection: "settings", Action: "update", Version: meta.Version})
	return &SettingsResult{Settings: committed, Meta: meta}, nil
}

func (s *service) announce(ctx context.Context, event realtime.Event) {
	if s.announcer != nil {
		s.announcer.Announce(ctx, event)
	}
}

func validateRates(input UpdateSettingsInput) error {
	check := func(field string, v *decimal.Decimal) error {
		if v != nil && v.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, field+" must not be negative")
		}
		return nil
	}
	if err := check("perKmRate", input.PerKMRate); err != nil {
		return err
	}
	if err := check("hourlyDriverCost", input.HourlyDriverCost); err != nil {
		return err
	}
	if err := check("nightPremium", input.NightPremium); err != nil {
		return err
	}
	for key, rate := range input.TrailerTypeDailyCost {
		if rate.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "trailerTypeDailyCost."+key+" must not be negative")
		}
	}
	return nil
}
