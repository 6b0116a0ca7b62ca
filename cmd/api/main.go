package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httpapi "github.com/spec-kit/claim-service/internal/api/http"
	"github.com/spec-kit/claim-service/internal/api/http/handlers"
	"github.com/spec-kit/claim-service/internal/auth"
	"github.com/spec-kit/claim-service/internal/config"
	"github.com/spec-kit/claim-service/internal/events"
	"github.com/spec-kit/claim-service/internal/observability"
	"github.com/spec-kit/claim-service/internal/persistence"
	"github.com/spec-kit/claim-service/internal/repository"
	"github.com/spec-kit/claim-service/internal/service"
	"github.com/spec-kit/claim-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations && postgres.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, postgres.PoolHandle(), logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	redisConn := persistence.NewRedis(cfg.Redis, logger)
	defer redisConn.Close()

	pool := postgres.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	ticketStore := repository.NewTicketStore(pool)
	auditLog := repository.NewAuditLog(pool)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		AdminRepo:         adminRepo,
		PasswordResetRepo: resetRepo,
	})
	intakeService := service.NewIntakeService(service.IntakeDependencies{
		TicketStore: ticketStore,
		AuditLog:    auditLog,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	claimService := service.NewClaimService(service.ClaimDependencies{
		TicketStore: ticketStore,
		AuditLog:    auditLog,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	notifier := service.NewNotifierService(dispatcher, redisConn.Client, logger, cfg.Notify)
	worker.StartNotifierWorker(notifier)

	metrics := observability.NewMetrics()
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, adminRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httpapi.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httpapi.RegisterRoutes(app, httpapi.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, postgres, redisConn),
		Users:          handlers.NewUsersHandler(authService),
		Admins:         handlers.NewAdminsHandler(authService),
		Tickets:        handlers.NewTicketsHandler(intakeService),
		AdminTickets:   handlers.NewAdminTicketsHandler(claimService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
