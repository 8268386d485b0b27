package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "default-secret-change-in-production"

// Config содержит конфигурацию API-сервера и бота.
type Config struct {
	RunAddress        string        `env:"RUN_ADDRESS"`
	DatabaseURI       string        `env:"DATABASE_URI"`
	RedisAddr         string        `env:"REDIS_ADDR"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB"`
	JWTSecret         string        `env:"JWT_SECRET"`
	TokenExpiration   time.Duration `env:"TOKEN_EXPIRATION"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	LogLevel          string        `env:"LOG_LEVEL"`

	// Бот
	BotToken         string        `env:"BOT_TOKEN"`
	AdminUserID      int64         `env:"ADMIN_USER_ID"`
	SupportUsername  string        `env:"SUPPORT_USERNAME"`
	APIBaseURL       string        `env:"API_BASE_URL"`
	APITimeout       time.Duration `env:"API_TIMEOUT"`
	NotifyAdminOnBuy bool          `env:"NOTIFY_ADMIN_ON_BUY"`
	SessionTTL       time.Duration `env:"SESSION_TTL"`

	// ChannelID - канал обязательной подписки, 0 отключает проверку.
	ChannelID       int64  `env:"CHANNEL_ID"`
	ChannelUsername string `env:"CHANNEL_USERNAME"`

	EnvFile string
}

// Load загружает конфигурацию из флагов командной строки, .env файла и переменных окружения.
// Приоритет: переменные окружения > .env > флаги > значения по умолчанию.
func Load() (*Config, error) {
	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "адрес и порт запуска сервиса")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "строка подключения к PostgreSQL")
	flag.StringVar(&cfg.RedisAddr, "r", "", "адрес Redis для сессий бота")
	flag.DurationVar(&cfg.TokenExpiration, "t", 24*time.Hour, "время жизни токена")
	flag.StringVar(&cfg.APIBaseURL, "api", "http://localhost:8080/api", "базовый адрес API заявок")
	flag.StringVar(&cfg.LogLevel, "l", "info", "уровень логирования")
	flag.StringVar(&cfg.EnvFile, "e", ".env", "путь к .env файлу")
	flag.Parse()

	cfg.JWTSecret = defaultJWTSecret
	cfg.APITimeout = 10 * time.Second
	cfg.SessionTTL = 24 * time.Hour
	cfg.SupportUsername = "patrickprodast"
	cfg.ChannelUsername = "PatrickVirts"

	// .env не переопределяет уже заданные переменные окружения
	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", cfg.EnvFile, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

// ValidateBot проверяет параметры, без которых бот не запустится.
func (c *Config) ValidateBot() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}
	if c.AdminUserID == 0 {
		return errors.New("ADMIN_USER_ID is required")
	}
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	return nil
}

// UsesDefaultSecret сообщает, что JWT_SECRET не задан.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}
