package planner

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
	pkgerrors "github.com/planboardhq/planboard-backend/pkg/errors"
	"github.com/planboardhq/planboard-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Gate serializes every planner mutation on the singleton meta row. Each
// call runs one transaction: lock the row, compare the declared version,
// apply the mutation, bump the version by exactly one, commit. A nil
// declared version skips the staleness check but still takes the lock and
// bumps.
type Gate struct {
	tx      txRunner
	repo    Repository
	metrics *metrics.PlannerMetrics
}

// NewGate builds the concurrency gate.
func NewGate(tx txRunner, repo Repository, m *metrics.PlannerMetrics) (*Gate, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("planner repository required")
	}
	return &Gate{tx: tx, repo: repo, metrics: m}, nil
}

// Mutate runs fn while holding the meta row lock and returns the meta row as
// committed, carrying the freshly bumped version. On a version mismatch fn
// never runs and the error details carry the authoritative meta so the
// client can resynchronize.
func (g *Gate) Mutate(ctx context.Context, declared *int64, fn func(tx *gorm.DB, meta *models.PlannerMeta) error) (*models.PlannerMeta, error) {
	start := time.Now()
	defer func() {
		g.metrics.ObserveGateDuration(time.Since(start))
	}()

	var committed *models.PlannerMeta
	err := g.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := g.repo.WithTx(tx)
		meta, err := repo.LockMeta(ctx)
		if err != nil {
			return err
		}

		if declared != nil && *declared != meta.Version {
			g.metrics.IncConflict()
			return pkgerrors.New(pkgerrors.CodeVersionConflict, "planner version conflict").
				WithDetails(map[string]any{
					"declaredVersion": *declared,
					"currentVersion":  meta.Version,
					"weekStart":       meta.WeekStart,
				})
		}

		if err := fn(tx, meta); err != nil {
			return err
		}

		meta.Version++
		if err := repo.SaveMeta(ctx, meta); err != nil {
			return err
		}
		committed = meta
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}
