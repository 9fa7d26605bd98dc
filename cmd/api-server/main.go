// Package main API Server 入口
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bloodbank-admin/internal/apiserver/auth"
	"bloodbank-admin/internal/apiserver/server"
	"bloodbank-admin/internal/config"
	"bloodbank-admin/internal/shared/storage/driver"
	"bloodbank-admin/pkg/logging"
)

func main() {
	configDir := flag.String("config", "", "配置文件目录（包含 {env}.yaml）")
	flag.Parse()
	if *configDir != "" {
		config.SetConfigDir(*configDir)
	}

	// 加载配置（.env.{env} + {env}.yaml + 环境变量）
	cfg := config.Load()

	logger := logging.New(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Component: "api-server",
	})

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger.Info("starting API server", "env", string(cfg.Env), "config", cfg.String(), "config_file", cfg.ConfigFilePath)

	store, err := driver.Open(driver.Options{
		Driver: cfg.DatabaseDriver,
		URL:    cfg.DatabaseURL,
		DBName: cfg.DatabaseDBName,
	})
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.DatabaseDriver, err)
	}
	defer store.Close()
	logger.Info("connected to database", "driver", cfg.DatabaseDriver)

	h, err := server.NewHandler(store, auth.Config{
		JWTSecret:  cfg.Auth.JWTSecret,
		BcryptCost: cfg.Auth.BcryptCost,
	}, server.Options{Logger: logger})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     newServerErrorLog(logger.Named("http-server")),
	}

	// 优雅关闭
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
