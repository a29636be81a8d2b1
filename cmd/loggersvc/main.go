package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/newsbus/newsbus/configs"
	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/internal/app"
	"github.com/newsbus/newsbus/messaging"
	"github.com/newsbus/newsbus/services/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", contracts.ServiceLogger)
	slog.SetDefault(log)

	if err := run(*configPath, log); err != nil {
		log.Error("service exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, log *slog.Logger) error {
	cfg, err := configs.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broker, err := app.ConnectBroker(ctx, cfg.Rabbit, log)
	if err != nil {
		return err
	}
	defer broker.Close()

	if err := broker.Topology.DeclareDestinations(ctx, contracts.DestLogger.Queue()); err != nil {
		return fmt.Errorf("failed to declare queues: %w", err)
	}

	db, err := app.OpenDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := logger.NewService(logger.NewSQLStore(db), logger.WithLogger(log))

	worker := messaging.NewWorker(contracts.DestLogger, broker.Subscriber, broker.Publisher,
		messaging.WithWorkerLogger(log))
	svc.RegisterHandlers(worker)
	if err := worker.Start(ctx); err != nil {
		return err
	}

	log.Info("logger service running")
	<-ctx.Done()

	log.Info("shutting down")
	return worker.Stop()
}
