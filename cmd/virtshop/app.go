package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/agamariel/virtshop/internal/config"
	"github.com/agamariel/virtshop/internal/handlers"
	"github.com/agamariel/virtshop/internal/migrations"
	"github.com/agamariel/virtshop/internal/notify"
	"github.com/agamariel/virtshop/internal/services"
	"github.com/agamariel/virtshop/internal/storage"
	"github.com/agamariel/virtshop/internal/telegram"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const (
	notifyWorkers   = 4
	notifyQueueSize = 256
)

// App управляет HTTP API заявок и его зависимостями.
type App struct {
	cfg        *config.Config
	logger     *zap.SugaredLogger
	dbPool     *pgxpool.Pool
	echo       *echo.Echo
	dispatcher *notify.Dispatcher

	orderStorage storage.OrderStorage
	banStorage   storage.BanStorage
	router       *handlers.Router
}

// NewApp создаёт и инициализирует приложение.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	app := &App{
		cfg:    cfg,
		logger: logger,
	}

	if err := app.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	app.initDependencies()
	app.initServer()

	return app, nil
}

// initStorage подключает PostgreSQL с миграциями или, без DATABASE_URI, хранилище в памяти.
func (app *App) initStorage(ctx context.Context) error {
	if app.cfg.DatabaseURI == "" {
		app.logger.Warn("DATABASE_URI is not set, orders and bans are kept in memory")
		app.orderStorage = storage.NewMemoryOrderStorage()
		app.banStorage = storage.NewMemoryBanStorage()
		return nil
	}

	app.logger.Info("running database migrations")
	sqlDB, err := sql.Open("pgx", app.cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("unable to open database connection: %w", err)
	}
	defer sqlDB.Close()

	if err := migrations.Run(sqlDB, app.logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	dbPool, err := pgxpool.New(ctx, app.cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return fmt.Errorf("unable to ping database: %w", err)
	}

	app.dbPool = dbPool
	app.orderStorage = storage.NewPostgresOrderStorage(dbPool)
	app.banStorage = storage.NewPostgresBanStorage(dbPool)
	app.logger.Info("connected to database")
	return nil
}

// initDependencies собирает сервисы и обработчики.
func (app *App) initDependencies() {
	if app.cfg.UsesDefaultSecret() {
		app.logger.Warn("JWT_SECRET is not set, using the default secret")
	}
	if app.cfg.AdminPasswordHash == "" {
		app.logger.Warn("ADMIN_PASSWORD_HASH is not set, admin login is disabled")
	}

	var notifier services.Notifier = notify.Nop{}
	if app.cfg.BotToken != "" {
		client := telegram.NewClient(telegram.DefaultBaseURL, app.cfg.BotToken, app.cfg.APITimeout)
		app.dispatcher = notify.NewDispatcher(notify.NewTelegramSender(client), notifyWorkers, notifyQueueSize, app.cfg.APITimeout, app.logger)
		notifier = app.dispatcher
	} else {
		app.logger.Warn("BOT_TOKEN is not set, users will not be notified about decisions")
	}

	orderService := services.NewOrderService(app.orderStorage, notifier, app.cfg.SupportUsername, app.logger)
	banService := services.NewBanService(app.banStorage, app.logger)
	adminService := services.NewAdminService(app.cfg.AdminPasswordHash, app.cfg.JWTSecret, app.cfg.TokenExpiration)

	app.router = &handlers.Router{
		Orders:    handlers.NewOrderHandler(orderService, app.logger),
		Bans:      handlers.NewBanHandler(banService, app.logger),
		Admin:     handlers.NewAdminHandler(adminService, app.cfg.TokenExpiration, app.logger),
		JWTSecret: app.cfg.JWTSecret,
	}
}

// initServer настраивает echo и маршруты.
func (app *App) initServer() {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			app.logger.Infow("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Gzip())

	app.router.Register(e)
	app.echo = e
}

// Start запускает уведомления и HTTP-сервер.
func (app *App) Start(ctx context.Context) error {
	if app.dispatcher != nil {
		app.dispatcher.Start(ctx)
	}

	app.logger.Infow("starting server", "address", app.cfg.RunAddress)
	if err := app.echo.Start(app.cfg.RunAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// Shutdown корректно завершает работу.
func (app *App) Shutdown(ctx context.Context) error {
	app.logger.Info("shutting down server")

	if err := app.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if app.dispatcher != nil {
		done := make(chan struct{})
		go func() {
			app.dispatcher.Stop()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			app.logger.Warn("notifications left undelivered on shutdown")
		}
	}

	if app.dbPool != nil {
		app.dbPool.Close()
	}

	app.logger.Info("server gracefully stopped")
	return nil
}
