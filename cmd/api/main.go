package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-pos-inventory/internal/config"
	"go-pos-inventory/internal/events"
	"go-pos-inventory/internal/handler"
	"go-pos-inventory/internal/metrics"
	"go-pos-inventory/internal/middleware"
	"go-pos-inventory/internal/repository"
	"go-pos-inventory/internal/service"
	"go-pos-inventory/internal/ws"
	"go-pos-inventory/pkg/database"
	"go-pos-inventory/pkg/jwt"
	applog "go-pos-inventory/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := applog.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	sqlLevel := gormlogger.Info
	if cfg.IsProduction() {
		sqlLevel = gormlogger.Warn
	}
	db, err := database.ConnectDB(database.Options{
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		LogLevel:        sqlLevel,
	})
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	productRepo := repository.NewProductRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	requestRepo := repository.NewRequestRepo(db)
	reportRepo := repository.NewReportRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	// 3. Seed default privileges, roles, and users
	if err := service.SeedDefaults(ctx, privilegeRepo, roleRepo, userRepo, zlog); err != nil {
		return err
	}

	// 4. Setup WebSocket Hub and event fan out
	m := metrics.New()
	wsHub := ws.NewHub(zlog)
	go wsHub.Run(ctx)

	publisher, closeEvents, err := setupEvents(ctx, cfg, wsHub, zlog)
	if err != nil {
		return err
	}
	defer closeEvents()

	// 5. Dependency Injection (Wiring Layers)
	env := service.Env{
		DB:          db,
		Events:      publisher,
		Metrics:     m,
		Log:         zlog,
		LockTimeout: cfg.LockTimeout,
	}
	services := handler.Services{
		Auth:     service.NewAuthService(userRepo, jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL), zlog),
		Products: service.NewProductService(env, productRepo, saleRepo, requestRepo, cfg.DefaultThreshold),
		Sales:    service.NewSaleService(env, productRepo, saleRepo),
		Requests: service.NewRequestService(env, requestRepo, productRepo, service.TransitionPolicy(cfg.RequestTransitions)),
		Reports:  service.NewReportService(reportRepo),
		Users:    service.NewUserService(userRepo, roleRepo, zlog),
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "POS Inventory v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS
	app.Use(middleware.Metrics(m))

	// 7. Routes
	handler.SetupRoutes(app, services, wsHub, m, zlog)

	// 8. Graceful Shutdown
	listenErr := make(chan error, 1)
	go func() {
		zlog.Info("http server listening",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.AppEnv),
			zap.String("request_transitions", cfg.RequestTransitions),
			zap.Duration("lock_timeout", cfg.LockTimeout))
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return err
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	zlog.Info("server exited")
	return nil
}

// setupEvents builds the committed-change publisher. With Redis configured,
// events go through the channel and every instance relays them to its own
// WebSocket clients; otherwise they are broadcast in process. Kafka is added
// alongside when brokers are set.
func setupEvents(ctx context.Context, cfg *config.Config, hub *ws.Hub, zlog *zap.Logger) (events.Publisher, func(), error) {
	var (
		publishers events.Multi
		closers    []func()
	)

	if cfg.RedisAddr != "" {
		client, err := events.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		publishers = append(publishers, events.NewRedisPublisher(client, cfg.RedisChannel))

		go func() {
			err := events.Relay(ctx, client, cfg.RedisChannel, hub, zlog)
			if err != nil && !errors.Is(err, context.Canceled) {
				zlog.Error("redis relay stopped", zap.Error(err))
			}
		}()
		zlog.Info("events relayed through redis", zap.String("channel", cfg.RedisChannel))
	} else {
		publishers = append(publishers, events.NewLocal(hub))
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewKafkaProducer(cfg.KafkaBrokers)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, err
		}
		kafka := events.NewKafkaPublisher(producer, cfg.KafkaTopicPrefix)
		closers = append(closers, func() { _ = kafka.Close() })
		publishers = append(publishers, kafka)
		zlog.Info("events published to kafka", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return publishers, closeAll, nil
}
