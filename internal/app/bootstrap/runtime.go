package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cacheadapter "github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/adapters/grpc"
	httpadapter "github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/adapters/instagram"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpcadapter.Server
	outbox     *eventadapter.OutboxWorker
	reconciler *eventadapter.ReconcilerWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping m31 comment automation service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	accounts := postgres.NewAccountRepository(db)
	rules := postgres.NewRuleRepository(db)
	ledger := postgres.NewCommentLedger(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:      cfg.ServiceID,
			Version:          cfg.Version,
			RecentMediaCount: cfg.RecentMediaCount,
			SeenCacheTTL:     cfg.SeenCacheTTL,
		},
		Accounts: accounts,
		Rules:    rules,
		Ledger:   ledger,
		Seen:     cacheadapter.NewSeenCommentCache(redisClient),
		Cycles:   cacheadapter.NewCycleStatusStore(redisClient),
		Graph: instagram.NewClient(instagram.Config{
			BaseURL:    cfg.GraphBaseURL,
			HTTPClient: &http.Client{Timeout: cfg.GraphHTTPTimeout},
		}),
		Outbox: outboxRepo,
	})

	handler := httpadapter.NewHandler(svc)
	webhooks := httpadapter.NewWebhookHandler(svc, accounts, cfg.WebhookVerifyToken, cfg.WebhookAppSecret)
	router := httpadapter.NewRouter(handler, webhooks, svc, cfg.JWTSecret)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var publisher ports.EventPublisher
	cleanupPublisher := func() {}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher = kafkaPublisher
		cleanupPublisher = func() { _ = kafkaPublisher.Close() }
	} else {
		logger.Warn("no kafka brokers configured, events go to the log only")
		publisher = eventadapter.NewLoggingPublisher()
	}

	outboxWorker := eventadapter.NewOutboxWorker(outboxRepo, publisher, eventadapter.OutboxWorkerConfig{
		Interval:   cfg.OutboxPollInterval,
		BatchSize:  cfg.OutboxBatchSize,
		MaxRetries: cfg.OutboxMaxRetries,
	})
	reconciler := eventadapter.NewReconcilerWorker(svc, cfg.PollInterval)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcadapter.NewServer(cfg.GRPCPort),
		outbox:     outboxWorker,
		reconciler: reconciler,
		cleanupFn: func(ctx context.Context) {
			cleanupPublisher()
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

// RunAPI serves the HTTP surface plus the gRPC health probe until a shutdown
// signal arrives.
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
		if err := r.grpcServer.Run(ctx); err != nil {
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
	r.cleanupFn(shutdownCtx)
	return nil
}

// RunWorker runs the polling reconciler and the outbox drainer until a
// shutdown signal arrives.
func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{}, 2)
	go func() {
		r.reconciler.Run(ctx)
		done <- struct{}{}
	}()
	go func() {
		r.outbox.Run(ctx)
		done <- struct{}{}
	}()

	<-ctx.Done()
	<-done
	<-done

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	return nil
}
