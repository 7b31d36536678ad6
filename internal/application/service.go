package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/templora/storefront/services/delivery/internal/domain"
	"github.com/templora/storefront/services/delivery/internal/ports"
)

// IssueDownloadURL is the single core operation behind both transport
// entry points: validate, check entitlement, locate the asset, mint.
// The three outbound calls run strictly in sequence; each gates the
// next, and the first failure aborts with its own sentinel.
func (s *Service) IssueDownloadURL(ctx context.Context, in IssueInput) (IssueResult, error) {
	in.VersionID = strings.TrimSpace(in.VersionID)
	if in.VersionID == "" {
		return IssueResult{}, domain.ErrVersionIDRequired
	}
	if strings.TrimSpace(in.BearerToken) == "" {
		return IssueResult{}, domain.ErrMissingAuthorization
	}

	if s.limiter != nil && strings.TrimSpace(in.ClientIP) != "" {
		allowed, err := s.limiter.Allow(ctx, in.ClientIP, s.nowFn())
		if err != nil {
			// A broken limiter must not take downloads down with it.
			s.logger().WarnContext(ctx, "rate limiter unavailable",
				"operation", "issue_download_url",
				"outcome", "degraded",
				"request_id", in.RequestID,
				"error", err.Error(),
			)
		} else if !allowed {
			s.recordOutcome(ctx, in, domain.OutcomeRateLimited)
			return IssueResult{}, domain.ErrRateLimited
		}
	}

	verdict := s.entitlements.Check(ctx, in.VersionID, in.BearerToken)
	if !verdict.Granted() {
		s.logger().WarnContext(ctx, "entitlement denied",
			"operation", "issue_download_url",
			"outcome", "failure",
			"request_id", in.RequestID,
			"version_id", in.VersionID,
			"reason", verdict.Reason(),
		)
		s.recordOutcome(ctx, in, domain.OutcomeForbidden)
		return IssueResult{}, domain.ErrForbidden
	}

	asset, err := s.assets.Locate(ctx, in.VersionID)
	if err != nil {
		if errors.Is(err, domain.ErrSourceNotFound) {
			s.recordOutcome(ctx, in, domain.OutcomeNotFound)
		}
		return IssueResult{}, err
	}

	signed, err := s.signer.Sign(ctx, asset.SourcePath, int(s.cfg.SignedURLTTL.Seconds()))
	if err != nil {
		s.logger().ErrorContext(ctx, "signed url mint failed",
			"operation", "issue_download_url",
			"outcome", "failure",
			"request_id", in.RequestID,
			"version_id", in.VersionID,
			"error", err.Error(),
		)
		s.recordOutcome(ctx, in, domain.OutcomeSignFailed)
		return IssueResult{}, domain.ErrSignedURLFailed
	}

	s.recordOutcome(ctx, in, domain.OutcomeIssued)
	s.publishIssued(ctx, in)
	if s.metrics != nil {
		s.metrics.IncURLIssued()
	}
	return IssueResult{URL: signed.URL, ExpiresIn: signed.ExpiresIn}, nil
}

// ListDownloadEvents serves the admin audit view.
func (s *Service) ListDownloadEvents(ctx context.Context, in ListDownloadEventsInput) ([]domain.DownloadEvent, error) {
	if s.audit == nil {
		return []domain.DownloadEvent{}, nil
	}
	limit := in.Limit
	if limit <= 0 || limit > s.cfg.AuditListLimit {
		limit = s.cfg.AuditListLimit
	}
	return s.audit.List(ctx, ports.DownloadEventFilter{
		VersionID: strings.TrimSpace(in.VersionID),
		ClientIP:  strings.TrimSpace(in.ClientIP),
		Limit:     limit,
	})
}

// recordOutcome appends the audit row best-effort. Auditing never
// changes the caller-visible result.
func (s *Service) recordOutcome(ctx context.Context, in IssueInput, outcome string) {
	if s.metrics != nil && outcome != domain.OutcomeIssued {
		s.metrics.IncDenied(outcome)
	}
	if s.audit == nil {
		return
	}
	row := domain.DownloadEvent{
		EventID:   "dl_" + uuid.NewString(),
		VersionID: in.VersionID,
		Outcome:   outcome,
		ClientIP:  strings.TrimSpace(in.ClientIP),
		RequestID: in.RequestID,
		Entry:     in.Entry,
		CreatedAt: s.nowFn(),
	}
	if err := s.audit.Append(ctx, row); err != nil {
		s.logger().WarnContext(ctx, "audit append failed",
			"operation", "record_download_event",
			"outcome", "failure",
			"request_id", in.RequestID,
			"error", err.Error(),
		)
	}
}

func (s *Service) publishIssued(ctx context.Context, in IssueInput) {
	if s.publisher == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{
		"version_id": in.VersionID,
		"entry":      in.Entry,
		"request_id": in.RequestID,
		"issued_at":  s.nowFn().Format("2006-01-02T15:04:05Z07:00"),
	})
	if err := s.publisher.Publish(ctx, s.cfg.DownloadEventKey, payload, in.VersionID); err != nil {
		s.logger().WarnContext(ctx, "event publish failed",
			"operation", "publish_download_event",
			"outcome", "failure",
			"request_id", in.RequestID,
			"error", err.Error(),
		)
	}
}

func (s *Service) logger() *slog.Logger {
	return slog.Default().With(
		"service", s.cfg.ServiceName,
		"module", "application",
		"layer", "service",
	)
}
