package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agamariel/virtshop/internal/auth"
	"github.com/agamariel/virtshop/internal/config"
	"github.com/agamariel/virtshop/internal/logger"
)

func main() {
	hashPassword := flag.String("hash-password", "", "вывести bcrypt-хеш пароля администратора и выйти")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	sugar, err := logger.New(cfg.LogLevel, false)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = sugar.Sync() }()

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	app, err := NewApp(rootCtx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to initialize application", "error", err)
	}

	go func() {
		if err := app.Start(rootCtx); err != nil {
			sugar.Errorw("server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	rootCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Shutdown(ctx); err != nil {
		sugar.Fatalw("shutdown failed", "error", err)
	}
}
