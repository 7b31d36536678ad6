package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/templora/storefront/services/delivery/internal/domain"
	"github.com/templora/storefront/services/delivery/internal/ports"
)

type Repositories struct {
	Downloads ports.DownloadEventRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{Downloads: &downloadEventRepository{db: db}}
}

type downloadEventModel struct {
	EventID   string    `gorm:"column:event_id;primaryKey"`
	VersionID string    `gorm:"column:version_id"`
	Outcome   string    `gorm:"column:outcome"`
	ClientIP  string    `gorm:"column:client_ip"`
	RequestID string    `gorm:"column:request_id"`
	Entry     string    `gorm:"column:entry"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (downloadEventModel) TableName() string { return "download_events" }

type downloadEventRepository struct {
	db *gorm.DB
}

func (r *downloadEventRepository) Append(ctx context.Context, row domain.DownloadEvent) error {
	return r.db.WithContext(ctx).Create(&downloadEventModel{
		EventID:   row.EventID,
		VersionID: row.VersionID,
		Outcome:   row.Outcome,
		ClientIP:  row.ClientIP,
		RequestID: row.RequestID,
		Entry:     row.Entry,
		CreatedAt: row.CreatedAt,
	}).Error
}

func (r *downloadEventRepository) List(ctx context.Context, filter ports.DownloadEventFilter) ([]domain.DownloadEvent, error) {
	q := r.db.WithContext(ctx).Model(&downloadEventModel{})
	if filter.VersionID != "" {
		q = q.Where("version_id = ?", filter.VersionID)
	}
	if filter.ClientIP != "" {
		q = q.Where("client_ip = ?", filter.ClientIP)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var models []downloadEventModel
	if err := q.Order("created_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.DownloadEvent, 0, len(models))
	for _, m := range models {
		out = append(out, domain.DownloadEvent{
			EventID:   m.EventID,
			VersionID: m.VersionID,
			Outcome:   m.Outcome,
			ClientIP:  m.ClientIP,
			RequestID: m.RequestID,
			Entry:     m.Entry,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}
