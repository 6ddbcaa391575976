package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"walkieDesk/cmd/buildCFG"
	"walkieDesk/internal/api/api"
	"walkieDesk/internal/audit"
	"walkieDesk/internal/ledger"
	"walkieDesk/internal/rabbit"
	"walkieDesk/internal/reminderWorker"
	"walkieDesk/internal/service"
	"walkieDesk/internal/store"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "'"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)
	port := serverCfg.Port

	storageCfg, err := buildCFG.BuildStorageConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build storage config")
	}

	var st store.Store
	switch storageCfg.Driver {
	case "postgres":
		masterDSN, slaveDSNs, poolOptions, err := buildCFG.BuildDBConfig(cfg, &log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build DB config")
		}
		db, err := dbpg.New(masterDSN, slaveDSNs, poolOptions)
		if err != nil {
			log.Fatal().Msgf("failed to connect to DB: %v", err)
		}
		pg, err := store.NewPgStore(db, &log)
		if err != nil {
			log.Fatal().Msgf("failed to initialize postgres store: %v", err)
		}
		cwd, err := os.Getwd()
		if err != nil {
			log.Fatal().Err(err).Msg("cannot get working directory")
		}
		if err := pg.MigrateUp(filepath.Join(cwd, "migrations/postgres")); err != nil {
			log.Fatal().Err(err).Msg("migration failed")
		}
		st = pg
	default:
		fs, err := store.NewFileStore(storageCfg.DataDir, &log)
		if err != nil {
			log.Fatal().Msgf("failed to initialize file store: %v", err)
		}
		st = fs
	}
	log.Info().Str("driver", storageCfg.Driver).Msg("Storage ready")

	adminCfg := buildCFG.BuildAdminConfig(cfg)
	auditLog := audit.New(st, &log)
	led := ledger.New(st, auditLog, &log, adminCfg.SeedPin)

	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
	}

	var rmq *rabbit.Client
	var reminder *reminderWorker.Reader
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	if rabbitCfg.Enabled {
		rmq, err = rabbit.New(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue)
		if err != nil {
			log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
		}
		defer rmq.Close()

		reminder = reminderWorker.NewReader(rmq, led, buildCFG.BuildSMTPConfig(cfg))
		reminder.Start(workerCtx)
	}

	serviceInstance := service.NewService(led, &log, rmq, rabbitCfg.OverdueMinutes)
	app := api.NewRouters(&api.Routers{Service: serviceInstance})

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", port)
		if err := app.Run(":" + port); err != nil {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	cancelWorkers()
	if reminder != nil {
		reminder.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if closer, ok := interface{}(app).(interface{ Close(context.Context) error }); ok {
		if err := closer.Close(shutdownCtx); err != nil {
			log.Error().Msgf("Error shutting down server: %v", err)
		}
	}

	log.Info().Msg("Shutdown complete")
}
