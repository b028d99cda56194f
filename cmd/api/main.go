package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/civic-stack/request-service/internal/api/http"
	"github.com/civic-stack/request-service/internal/api/http/handlers"
	"github.com/civic-stack/request-service/internal/auth"
	"github.com/civic-stack/request-service/internal/cache"
	"github.com/civic-stack/request-service/internal/config"
	"github.com/civic-stack/request-service/internal/events"
	"github.com/civic-stack/request-service/internal/observability"
	"github.com/civic-stack/request-service/internal/persistence"
	"github.com/civic-stack/request-service/internal/repository"
	"github.com/civic-stack/request-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	citizenRepo := repository.NewCitizenRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	eventLogRepo := repository.NewEventLogRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	requestCache := cache.NewRequestCache(redis.Client, cfg.Cache.RequestTTL(), logger)
	requestCache.RegisterInvalidation(dispatcher)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CitizenRepo: citizenRepo,
		StaffRepo:   staffRepo,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), citizenRepo, staffRepo)

	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo:  requestRepo,
		EventLogRepo: eventLogRepo,
		Dispatcher:   dispatcher,
		Cache:        requestCache,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		RequestRepo:    requestRepo,
		StaffRepo:      staffRepo,
		DepartmentRepo: departmentRepo,
		Dispatcher:     dispatcher,
	})

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.App.Env == "production"})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Citizens:      handlers.NewCitizensHandler(authService),
		StaffAuth:     handlers.NewStaffAuthHandler(authService),
		Requests:      handlers.NewRequestsHandler(requestService),
		StaffRequests: handlers.NewStaffRequestsHandler(requestService, lifecycleService),
		Departments:   handlers.NewDepartmentsHandler(departmentRepo),
		Auth:          authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
