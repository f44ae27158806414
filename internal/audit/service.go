package audit

import (
	"context"
	"fmt"

	"github.com/planboardhq/planboard-backend/pkg/db/models"
	"github.com/planboardhq/planboard-backend/pkg/pagination"
)

type service struct {
	repo Repository
}

// NewService builds the audit read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filters Filters, params pagination.Params) (*EntryList, error) {
	entries, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	list := &EntryList{Items: entries}
	if len(entries) > limit {
		list.Items = entries[:limit]
		last := list.Items[len(list.Items)-1]
		token := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &token
	}
	if list.Items == nil {
		list.Items = []models.AuditEntry{}
	}
	return list, nil
}
