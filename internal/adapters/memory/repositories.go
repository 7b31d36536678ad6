// Package memory provides in-process repository implementations used
// when no database is configured and by the test suites.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/templora/storefront/services/delivery/internal/domain"
	"github.com/templora/storefront/services/delivery/internal/ports"
)

type DownloadEventRepository struct {
	mu   sync.Mutex
	rows []domain.DownloadEvent
}

func NewDownloadEventRepository() *DownloadEventRepository {
	return &DownloadEventRepository{rows: []domain.DownloadEvent{}}
}

func (r *DownloadEventRepository) Append(_ context.Context, row domain.DownloadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
	return nil
}

func (r *DownloadEventRepository) List(_ context.Context, filter ports.DownloadEventFilter) ([]domain.DownloadEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.DownloadEvent{}
	for _, row := range r.rows {
		if filter.VersionID != "" && row.VersionID != filter.VersionID {
			continue
		}
		if filter.ClientIP != "" && row.ClientIP != filter.ClientIP {
			continue
		}
		if !filter.Since.IsZero() && row.CreatedAt.Before(filter.Since) {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}
