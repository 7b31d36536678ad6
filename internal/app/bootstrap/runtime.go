package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/templora/storefront/services/delivery/internal/adapters/cache"
	eventadapter "github.com/templora/storefront/services/delivery/internal/adapters/events"
	httpadapter "github.com/templora/storefront/services/delivery/internal/adapters/http"
	"github.com/templora/storefront/services/delivery/internal/adapters/memory"
	metricsadapter "github.com/templora/storefront/services/delivery/internal/adapters/metrics"
	"github.com/templora/storefront/services/delivery/internal/adapters/postgres"
	"github.com/templora/storefront/services/delivery/internal/adapters/supabase"
	"github.com/templora/storefront/services/delivery/internal/application"
	"github.com/templora/storefront/services/delivery/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping template delivery service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"bucket", cfg.StorageBucket,
	)

	closers := make([]func(), 0, 4)
	readyChecks := make([]func(context.Context) error, 0, 2)

	supaClient, err := supabase.NewClient(supabase.Config{
		BaseURL:    cfg.SupabaseURL,
		AnonKey:    cfg.SupabaseAnonKey,
		ServiceKey: cfg.SupabaseServiceKey,
		Timeout:    cfg.UpstreamTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init supabase client: %w", err)
	}

	var audit ports.DownloadEventRepository = memory.NewDownloadEventRepository()
	if cfg.DatabaseURL != "" {
		pool, dbErr := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if dbErr != nil {
			return nil, fmt.Errorf("connect postgres: %w", dbErr)
		}
		sqlDB, dbErr := pool.DB()
		if dbErr != nil {
			return nil, fmt.Errorf("gorm sql db: %w", dbErr)
		}
		if dbErr := postgres.RunMigrations(ctx, pool); dbErr != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", dbErr)
		}
		audit = postgres.NewRepositories(pool).Downloads
		closers = append(closers, func() { _ = sqlDB.Close() })
		readyChecks = append(readyChecks, func(ctx context.Context) error { return sqlDB.PingContext(ctx) })
	} else {
		logger.Warn("no database configured, download audit kept in memory")
	}

	var limiter ports.RateLimiter
	if cfg.RedisURL != "" {
		redisClient, redisErr := cacheadapter.Connect(ctx, cfg.RedisURL)
		if redisErr != nil {
			runClosers(closers)
			return nil, fmt.Errorf("connect redis: %w", redisErr)
		}
		if pingErr := redisClient.Ping(ctx).Err(); pingErr != nil {
			runClosers(closers)
			return nil, fmt.Errorf("ping redis: %w", pingErr)
		}
		limiter = cacheadapter.NewRedisRateLimiter(redisClient, cfg.DownloadRatePerMinute)
		closers = append(closers, func() { _ = redisClient.Close() })
		readyChecks = append(readyChecks, func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	} else {
		logger.Warn("no redis configured, download rate limiting disabled")
	}

	var publisher ports.EventPublisher = eventadapter.NewLoggingPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			"delivery.download_url_issued": "delivery.downloads",
		})
		if pubErr != nil {
			logger.Warn("kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			closers = append(closers, func() { _ = kafkaPublisher.Close() })
		}
	}

	prom := metricsadapter.NewProm("delivery")
	if regErr := prom.Register(prometheus.DefaultRegisterer); regErr != nil {
		return nil, fmt.Errorf("register metrics: %w", regErr)
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:  cfg.ServiceID,
			SignedURLTTL: cfg.SignedURLTTL,
		},
		Entitlements: supabase.NewEntitlementClient(supaClient),
		Assets:       supabase.NewAssetClient(supaClient),
		Signer:       supabase.NewSignerClient(supaClient, cfg.StorageBucket),
		Audit:        audit,
		Limiter:      limiter,
		Publisher:    publisher,
		Metrics:      prom,
	})

	handler := httpadapter.NewHandler(svc, httpadapter.HandlerOptions{
		AdminToken:  cfg.AdminAPIToken,
		ReadyChecks: readyChecks,
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		runClosers(closers)
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		cleanupFn: func(context.Context) {
			runClosers(closers)
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func runClosers(closers []func()) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}
