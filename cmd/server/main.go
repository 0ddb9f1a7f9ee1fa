// Package main initializes and starts the account and file storage HTTP
// server, setting up configuration, logging, database connections,
// repositories, services and handlers.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/accvault/internal/config"
	"github.com/atinyakov/accvault/internal/db"
	"github.com/atinyakov/accvault/internal/logger"
	"github.com/atinyakov/accvault/internal/repository"
	"github.com/atinyakov/accvault/internal/server/handler/http"
	"github.com/atinyakov/accvault/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	fileRepo, err := repository.NewDiskFileRepository(options.UploadDir, options.DefaultsDir)
	if err != nil {
		zapLogger.Fatal("cannot init upload directory", zap.Error(err))
	}
	accountRepo := repository.NewPostgresAccountRepository(postgresDB)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Sweep temp files left behind by interrupted uploads.
	repository.StartTempFileCleaner(ctx, fileRepo,
		time.Hour,    // interval
		24*time.Hour, // retention
		zapLogger,
	)

	// Initialize business-logic services.
	accountService := service.NewAccountService(accountRepo, fileRepo, zapLogger)
	fileService := service.NewFileService(fileRepo, accountRepo, zapLogger)

	// Create HTTP handlers for account and file endpoints.
	accountHandler := &http.AccountHandler{AccountService: accountService}
	fileHandler := &http.FileHandler{FileService: fileService}

	// Build the router with middleware and routes.
	router := http.NewRouter(accountHandler, fileHandler, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("starting HTTP server",
			zap.String("addr", options.Port),
			zap.String("upload_dir", options.UploadDir),
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		zapLogger.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Error("HTTP server failed", zap.Error(err))
			return
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
