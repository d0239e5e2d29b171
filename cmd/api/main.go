package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rightsdesk-backend/bootstrap"
	"rightsdesk-backend/internal/config"
	"rightsdesk-backend/internal/interfaces/router"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	bootstrap.ConfigureLogging(cfg)

	app, db, rdb, err := router.CreateApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create failed")
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := router.Ping(pingCtx, db, rdb); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("startup connection check failed")
	}
	cancel()
	log.Info().Msg("database and redis connected")

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
		_ = rdb.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
