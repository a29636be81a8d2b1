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
	"github.com/newsbus/newsbus/services/comments"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", contracts.ServiceComments)
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("service exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := configs.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broker, err := app.ConnectBroker(ctx, cfg.Rabbit, logger)
	if err != nil {
		return err
	}
	defer broker.Close()

	err = broker.Topology.DeclareDestinations(ctx,
		contracts.DestComments.Queue(), contracts.DestLogger.Queue())
	if err != nil {
		return fmt.Errorf("failed to declare queues: %w", err)
	}

	db, err := app.OpenDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	reg, err := messaging.NewRegistry(ctx, broker.Publisher, broker.Subscriber,
		messaging.WithRegistryLogger(logger),
		messaging.WithRequestTimeout(cfg.Rabbit.RequestTimeout),
		messaging.WithReplyQueueDeclarer(broker.Topology),
	)
	if err != nil {
		return err
	}
	defer reg.Close()

	svc := comments.NewService(comments.NewSQLStore(db),
		comments.WithLogEmitter(reg.Client(contracts.DestLogger)),
		comments.WithLogger(logger),
	)

	worker := messaging.NewWorker(contracts.DestComments, broker.Subscriber, broker.Publisher,
		messaging.WithWorkerLogger(logger))
	svc.RegisterHandlers(worker)
	if err := worker.Start(ctx); err != nil {
		return err
	}

	logger.Info("comments service running")
	<-ctx.Done()

	logger.Info("shutting down")
	return worker.Stop()
}
