package main

import (
	"context"
	"fmt"

	"github.com/agamariel/virtshop/internal/apiclient"
	"github.com/agamariel/virtshop/internal/auth"
	"github.com/agamariel/virtshop/internal/bot"
	"github.com/agamariel/virtshop/internal/catalog"
	"github.com/agamariel/virtshop/internal/config"
	"github.com/agamariel/virtshop/internal/conversation"
	"github.com/agamariel/virtshop/internal/notify"
	"github.com/agamariel/virtshop/internal/telegram"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	tokenSubject    = "virtbot"
	notifyWorkers   = 2
	notifyQueueSize = 64
)

// App - процесс Telegram-бота.
type App struct {
	cfg        *config.Config
	logger     *zap.SugaredLogger
	telegram   *telegram.Client
	redis      *redis.Client
	dispatcher *notify.Dispatcher
	poller     *telegram.Poller
}

// NewApp собирает бота.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	app := &App{cfg: cfg, logger: logger}

	sessions, err := app.initSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sessions: %w", err)
	}

	app.telegram = telegram.NewClient(telegram.DefaultBaseURL, cfg.BotToken, cfg.APITimeout)
	app.dispatcher = notify.NewDispatcher(notify.NewTelegramSender(app.telegram), notifyWorkers, notifyQueueSize, cfg.APITimeout, logger)

	if cfg.UsesDefaultSecret() {
		logger.Warn("JWT_SECRET is not set, using the default secret")
	}
	botAPI := apiclient.New(cfg.APIBaseURL, cfg.APITimeout,
		auth.NewTokenSource(tokenSubject, auth.RoleBot, cfg.JWTSecret, cfg.TokenExpiration))
	adminAPI := apiclient.New(cfg.APIBaseURL, cfg.APITimeout,
		auth.NewTokenSource(tokenSubject, auth.RoleAdmin, cfg.JWTSecret, cfg.TokenExpiration))

	var subs conversation.SubscriptionChecker
	if cfg.ChannelID != 0 {
		subs = telegram.NewChannelMembership(app.telegram, cfg.ChannelID)
		logger.Infow("channel subscription is required", "channel_id", cfg.ChannelID)
	}

	cat := catalog.Default()
	machine := conversation.NewMachine(cat, sessions, botAPI, botAPI, subs, app.dispatcher, conversation.Config{
		AdminUserID:      cfg.AdminUserID,
		NotifyAdminOnBuy: cfg.NotifyAdminOnBuy,
		Channel:          cfg.ChannelUsername,
	}, logger)

	handler := bot.New(app.telegram, machine, botAPI, adminAPI, cat, bot.Config{
		AdminUserID:     cfg.AdminUserID,
		SupportUsername: cfg.SupportUsername,
	}, logger)

	app.poller = telegram.NewPoller(app.telegram, handler, logger)
	return app, nil
}

// initSessions выбирает Redis, если задан REDIS_ADDR, иначе память процесса.
func (app *App) initSessions(ctx context.Context) (conversation.SessionStore, error) {
	if app.cfg.RedisAddr == "" {
		app.logger.Info("REDIS_ADDR is not set, sessions are kept in memory")
		return conversation.NewMemorySessionStore(app.cfg.SessionTTL), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}

	app.redis = client
	app.logger.Infow("connected to redis", "address", app.cfg.RedisAddr)
	return conversation.NewRedisSessionStore(client, app.cfg.SessionTTL), nil
}

// Run опрашивает Telegram до отмены ctx.
func (app *App) Run(ctx context.Context) {
	app.dispatcher.Start(ctx)

	if err := app.telegram.DeleteWebhook(ctx); err != nil {
		app.logger.Warnw("failed to delete webhook", "error", err)
	}

	app.logger.Infow("bot started", "api", app.cfg.APIBaseURL)
	app.poller.Run(ctx)
}

// Shutdown дожидается отправки уведомлений и закрывает соединения.
func (app *App) Shutdown() {
	app.logger.Info("shutting down bot")
	app.dispatcher.Stop()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warnw("failed to close redis", "error", err)
		}
	}
	app.logger.Info("bot stopped")
}
