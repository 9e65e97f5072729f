package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-replenishment-service/config"
	"github.com/fekuna/omnipos-replenishment-service/internal/broker"
	"github.com/fekuna/omnipos-replenishment-service/internal/cache"
	"github.com/fekuna/omnipos-replenishment-service/internal/clock"
	"github.com/fekuna/omnipos-replenishment-service/internal/database"
	"github.com/fekuna/omnipos-replenishment-service/internal/logger"
	"github.com/fekuna/omnipos-replenishment-service/internal/metrics"
	"github.com/fekuna/omnipos-replenishment-service/internal/middleware"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/events"
	"github.com/fekuna/omnipos-replenishment-service/internal/replenishment/planner"
	"github.com/fekuna/omnipos-replenishment-service/internal/server"

	replH "github.com/fekuna/omnipos-replenishment-service/internal/replenishment/handler"
	replListenerPkg "github.com/fekuna/omnipos-replenishment-service/internal/replenishment/listener"
	replRepoPkg "github.com/fekuna/omnipos-replenishment-service/internal/replenishment/repository"
	replSchedulerPkg "github.com/fekuna/omnipos-replenishment-service/internal/replenishment/scheduler"
	replUCPkg "github.com/fekuna/omnipos-replenishment-service/internal/replenishment/usecase"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func withColon(port string) string {
	if !strings.HasPrefix(port, ":") {
		return ":" + port
	}
	return port
}

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	location, err := cfg.Replenishment.Location()
	if err != nil {
		appLogger.Warn("Unknown business time zone, using UTC", zap.String("timezone", cfg.Replenishment.Timezone), zap.Error(err))
	}

	// 3. Connect to Database
	db, err := database.NewPostgres(&database.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repository
	replRepo := replRepoPkg.NewPGRepository(db, location)

	healthChecks := map[string]server.PingFunc{
		"postgres": db.PingContext,
	}

	// 5. Initialize run lock
	var locker replenishment.Locker = cache.NewLocalLocker()
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, run lock is local to this process", zap.Error(err))
		} else {
			defer redisClient.Close()
			locker = redisClient
			healthChecks["redis"] = func(ctx context.Context) error {
				return redisClient.Client.Ping(ctx).Err()
			}
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 6. Initialize Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	runMetrics := metrics.NewRunMetrics(registry, metrics.Config{
		ServiceName: cfg.Metrics.ServiceName,
		Environment: cfg.Server.AppEnv,
	})

	// 7. Initialize Kafka Producer
	var publisher replenishment.EventPublisher
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.PlanEventsTopic,
		})
		defer producer.Close()
		publisher = events.NewKafkaPublisher(producer)
		appLogger.Info("Kafka producer ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.PlanEventsTopic))
	}

	// 8. Initialize UseCase
	plannerCfg := planner.Config{
		WarehouseStoreID:    cfg.Replenishment.WarehouseStoreID,
		ReviewPeriodDays:    cfg.Replenishment.ReviewPeriodDays,
		LeadTimeDays:        cfg.Replenishment.LeadTimeDays,
		LookbackDays:        cfg.Replenishment.LookbackDays,
		ReadinessWindowDays: cfg.Replenishment.ReadinessWindowDays,
		OverstockDays:       float64(cfg.Replenishment.OverstockDays),
	}
	if plannerCfg.WarehouseStoreID == "" {
		appLogger.Warn("REPLENISHMENT_WAREHOUSE_STORE_ID is not set, no store is excluded as warehouse")
	}

	replUC := replUCPkg.NewReplenishmentUseCase(replRepo, locker, publisher, runMetrics, clock.SystemClock{}, replUCPkg.Options{
		Planner:  plannerCfg,
		Workers:  cfg.Replenishment.Workers,
		LockTTL:  cfg.Replenishment.LockTTL(),
		Location: location,
	}, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runTimeout := cfg.Replenishment.RunTimeout()

	// 9. Initialize Listener
	if cfg.Kafka.Enabled {
		kafkaConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.RunRequestTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.RunRequestTopic))

		runListener := replListenerPkg.NewRunRequestListener(kafkaConsumer, replUC, runTimeout, appLogger)
		go runListener.Start(ctx)
	}

	// 10. Initialize Scheduler
	if cfg.Scheduler.Enabled {
		sched := replSchedulerPkg.NewScheduler(replUC, replSchedulerPkg.Config{
			Interval:   time.Duration(cfg.Scheduler.IntervalSeconds) * time.Second,
			RunTimeout: runTimeout,
		}, appLogger)
		go sched.RunForever(ctx)
	}

	// 11. Start gRPC Server
	port := withColon(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(middleware.ContextInterceptor(appLogger)),
	)

	replH.RegisterReplenishmentServer(grpcServer, replH.NewReplenishmentHandler(replUC, runTimeout, appLogger))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(replH.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// 12. Start ops HTTP server
	opsServer := &http.Server{
		Addr:              withColon(cfg.Server.OpsPort),
		Handler:           server.NewOpsRouter(registry, healthChecks),
		ReadHeaderTimeout: 5 * time.Second,
	}
	appLogger.Info("Starting ops server", zap.String("port", opsServer.Addr))
	go func() {
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("ops server stopped", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("ops server shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
