package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/product-catalog/internal/cfg"
	v1Grpc "github.com/DRSN-tech/product-catalog/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/product-catalog/internal/delivery/v1/http"
	"github.com/DRSN-tech/product-catalog/internal/infrastructure/kafka"
	"github.com/DRSN-tech/product-catalog/internal/infrastructure/users"
	"github.com/DRSN-tech/product-catalog/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/product-catalog/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/product-catalog/internal/repository/redis"
	redisConv "github.com/DRSN-tech/product-catalog/internal/repository/redis/converter"
	"github.com/DRSN-tech/product-catalog/internal/usecase"
	"github.com/DRSN-tech/product-catalog/pkg/clients"
	"github.com/DRSN-tech/product-catalog/pkg/closer"
	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/DRSN-tech/product-catalog/pkg/logger"
	"github.com/DRSN-tech/product-catalog/pkg/postgres"
	"github.com/DRSN-tech/product-catalog/pkg/telemetry"
	"github.com/DRSN-tech/product-catalog/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
	topicTimeout    = 10 * time.Second
)

// App собирает зависимости сервиса и управляет их жизненным циклом.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv *v1Http.Server
	grpcSrv *v1Grpc.GRPCServer
	worker  *kafka.OutboxWorker
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	a := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(0),
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("telemetry", func(ctx context.Context) error { return shutdownTelemetry(ctx) })

	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		_ = a.closer.Close(context.Background())
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("postgres", func(context.Context) error {
		db.Close()
		return nil
	})

	if err := db.RunMigrations(log, os.Getenv("MIGRATIONS_URL")); err != nil {
		_ = a.closer.Close(context.Background())
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redisClient := clients.NewRedisClient(cfg.Redis)
	if err := redisClient.Ping(ctx); err != nil {
		// Кэш необязателен: без Redis сервис работает напрямую с базой.
		log.Warnf("redis unavailable, continuing without warm cache: %v", err)
	}
	a.closer.Add("redis", func(context.Context) error { return redisClient.Close() })

	producer := kafka.NewProducer(log, cfg.Kafka)
	if err := producer.EnsureTopic(topicTimeout); err != nil {
		log.Warnf("failed to ensure kafka topic %q: %v", cfg.Kafka.Topic, err)
	}
	a.closer.Add("kafka producer", func(context.Context) error { return producer.Close() })

	txManager := tr.NewManager(db.Pool)

	productRepo := pgdb.NewProductRepo(db.Pool, pgdbConv.NewProductConverter())
	idempotencyRepo := pgdb.NewIdempotencyRepo(db.Pool, pgdbConv.NewIdempotencyRecordConverter())
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.NewOutboxEventConverter())
	cacheRepo := redis.NewCacheRepo(redisClient, redisConv.NewProductInfoConverter(), cfg.Redis, log)

	userClient := users.NewUserClient(cfg.Users, log)
	gate := usecase.NewAuthGate(userClient, cfg.Users.AdminRole, cfg.Users.AuthTimeout, log)

	inventoryUC := usecase.NewInventoryUC(
		txManager,
		productRepo,
		usecase.NewIdempotencyLedger(idempotencyRepo),
		outboxRepo,
		cacheRepo,
		log,
	)

	productUC := usecase.NewProductUC(
		txManager,
		productRepo,
		outboxRepo,
		cacheRepo,
		gate,
		inventoryUC,
		int64(cfg.Inventory.LowStockThreshold),
		log,
	)

	a.worker = kafka.NewOutboxWorker(outboxRepo, log, producer, db.Dsn, cfg.Kafka.OutboxBatchSize)

	a.grpcSrv = v1Grpc.NewGRPCServer(cfg.Grpc, db, log)

	r := chi.NewRouter()
	v1Http.NewRouter(r, log).Init(productUC, db)
	a.httpSrv = v1Http.NewServer(r, cfg.Http)

	return a, nil
}

// Run запускает серверы и воркер outbox и блокируется до сигнала остановки или фатальной ошибки.
func (a *App) Run() error {
	workerCtx, workerCancel := context.WithCancel(context.Background())
	a.worker.Start(workerCtx)
	a.closer.Add("outbox worker", func(context.Context) error {
		workerCancel()
		a.worker.Stop()
		return nil
	})

	grpcErrCh := make(chan error, 1)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			grpcErrCh <- err
		}
	}()
	a.closer.Add("grpc server", a.grpcSrv.Stop)

	httpErrCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErrCh <- err
		}
	}()
	a.closer.Add("http server", a.httpSrv.Stop)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-httpErrCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case appErr = <-grpcErrCh:
		a.logger.Errorf(appErr, "gRPC server fatal error")
	case sig := <-shutdown:
		a.logger.Infof("received %s, stopping gracefully...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(ctx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
		if appErr == nil {
			appErr = err
		}
	} else {
		a.logger.Infof("application stopped")
	}

	return appErr
}
