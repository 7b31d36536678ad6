package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the delivery
// service. It merges file defaults and environment overrides to support
// both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	StorageBucket      string
	SignedURLTTL       time.Duration
	UpstreamTimeout    time.Duration

	DatabaseURL string
	RedisURL    string
	MaxDBConns  int32

	KafkaBrokers []string

	DownloadRatePerMinute int
	AdminAPIToken         string
}

// configFile mirrors the YAML schema used by configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Supabase struct {
		URL           string `yaml:"url"`
		AnonKey       string `yaml:"anon_key"`
		ServiceKey    string `yaml:"service_role_key"`
		StorageBucket string `yaml:"storage_bucket"`
	} `yaml:"supabase"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:             "Template-Delivery-Service",
		HTTPPort:              8080,
		GRPCPort:              9090,
		StorageBucket:         "template-sources",
		SignedURLTTL:          120 * time.Second,
		UpstreamTimeout:       5 * time.Second,
		MaxDBConns:            20,
		DownloadRatePerMinute: 20,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Supabase.URL != "" {
			cfg.SupabaseURL = f.Supabase.URL
		}
		if f.Supabase.AnonKey != "" {
			cfg.SupabaseAnonKey = f.Supabase.AnonKey
		}
		if f.Supabase.ServiceKey != "" {
			cfg.SupabaseServiceKey = f.Supabase.ServiceKey
		}
		if f.Supabase.StorageBucket != "" {
			cfg.StorageBucket = f.Supabase.StorageBucket
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
	}

	cfg.SupabaseURL = envOrDefault("SUPABASE_URL", cfg.SupabaseURL)
	cfg.SupabaseAnonKey = envOrDefault("SUPABASE_ANON_KEY", cfg.SupabaseAnonKey)
	cfg.SupabaseServiceKey = envOrDefault("SUPABASE_SERVICE_ROLE_KEY", cfg.SupabaseServiceKey)
	cfg.StorageBucket = envOrDefault("STORAGE_BUCKET", cfg.StorageBucket)
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.AdminAPIToken = envOrDefault("ADMIN_API_TOKEN", cfg.AdminAPIToken)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.DownloadRatePerMinute = envInt("DOWNLOAD_RATE_LIMIT_PER_MINUTE", cfg.DownloadRatePerMinute)
	cfg.SignedURLTTL = time.Duration(envInt("SIGNED_URL_TTL_SECONDS", int(cfg.SignedURLTTL.Seconds()))) * time.Second
	cfg.UpstreamTimeout = time.Duration(envInt("UPSTREAM_TIMEOUT_SECONDS", int(cfg.UpstreamTimeout.Seconds()))) * time.Second

	if cfg.SupabaseURL == "" {
		return Config{}, fmt.Errorf("missing SUPABASE_URL")
	}
	if cfg.SupabaseAnonKey == "" {
		return Config{}, fmt.Errorf("missing SUPABASE_ANON_KEY")
	}
	if cfg.SupabaseServiceKey == "" {
		return Config{}, fmt.Errorf("missing SUPABASE_SERVICE_ROLE_KEY")
	}
	if cfg.SignedURLTTL <= 0 {
		return Config{}, fmt.Errorf("SIGNED_URL_TTL_SECONDS must be positive")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
