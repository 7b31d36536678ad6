// Package supabase holds the outbound REST clients for the three
// downstream collaborators: the entitlement RPC, the version metadata
// table, and the storage signing endpoint. Each client normalizes its
// raw wire shape at this boundary so the rest of the service only sees
// domain types.
package supabase

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client carries the shared base URLs, credentials and HTTP client for
// the per-concern adapters below. AnonKey is the low-privilege read
// credential; ServiceKey is the elevated signing credential. Keeping
// them separate means a compromised read path cannot mint URLs.
type Client struct {
	restBase    string
	storageBase string
	anonKey     string
	serviceKey  string
	httpClient  *http.Client
}

type Config struct {
	BaseURL    string
	AnonKey    string
	ServiceKey string
	Timeout    time.Duration
}

// NewClient derives the REST and storage API roots from one project
// base URL, the same way the hosted platform lays them out.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("supabase base url is required")
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, fmt.Errorf("supabase anon key is required")
	}
	if strings.TrimSpace(cfg.ServiceKey) == "" {
		return nil, fmt.Errorf("supabase service key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		restBase:    base + "/rest/v1",
		storageBase: base + "/storage/v1",
		anonKey:     cfg.AnonKey,
		serviceKey:  cfg.ServiceKey,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}
