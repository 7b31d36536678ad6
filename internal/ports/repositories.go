package ports

import (
	"context"
	"time"

	"github.com/templora/storefront/services/delivery/internal/domain"
)

type DownloadEventRepository interface {
	Append(ctx context.Context, row domain.DownloadEvent) error
	List(ctx context.Context, filter DownloadEventFilter) ([]domain.DownloadEvent, error)
}

// DownloadEventFilter narrows audit listings. Zero values mean "any".
type DownloadEventFilter struct {
	VersionID string
	ClientIP  string
	Since     time.Time
	Limit     int
}

// RateLimiter counts download attempts per client key over a fixed
// window. Allow reports whether this attempt is within the limit.
type RateLimiter interface {
	Allow(ctx context.Context, key string, now time.Time) (bool, error)
}
