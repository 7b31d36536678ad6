package application

import (
	"time"

	"github.com/templora/storefront/services/delivery/internal/ports"
)

type Config struct {
	ServiceName      string
	SignedURLTTL     time.Duration
	AuditListLimit   int
	DownloadEventKey string
}

// IssueInput carries everything the download pipeline needs. Entry
// names the transport route that invoked it; both entry points feed the
// same core operation.
type IssueInput struct {
	VersionID   string
	BearerToken string
	ClientIP    string
	RequestID   string
	Entry       string
}

type IssueResult struct {
	URL       string
	ExpiresIn int
}

type ListDownloadEventsInput struct {
	VersionID string
	ClientIP  string
	Limit     int
}

type Service struct {
	cfg          Config
	entitlements ports.EntitlementChecker
	assets       ports.AssetLocator
	signer       ports.URLSigner
	audit        ports.DownloadEventRepository
	limiter      ports.RateLimiter
	publisher    ports.EventPublisher
	metrics      ports.Metrics
	nowFn        func() time.Time
}

type Dependencies struct {
	Config       Config
	Entitlements ports.EntitlementChecker
	Assets       ports.AssetLocator
	Signer       ports.URLSigner
	Audit        ports.DownloadEventRepository
	Limiter      ports.RateLimiter
	Publisher    ports.EventPublisher
	Metrics      ports.Metrics
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "Template-Delivery-Service"
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = 120 * time.Second
	}
	if cfg.AuditListLimit <= 0 {
		cfg.AuditListLimit = 100
	}
	if cfg.DownloadEventKey == "" {
		cfg.DownloadEventKey = "delivery.download_url_issued"
	}
	return &Service{
		cfg:          cfg,
		entitlements: deps.Entitlements,
		assets:       deps.Assets,
		signer:       deps.Signer,
		audit:        deps.Audit,
		limiter:      deps.Limiter,
		publisher:    deps.Publisher,
		metrics:      deps.Metrics,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}
