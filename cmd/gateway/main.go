package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newsbus/newsbus/configs"
	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/gateway"
	"github.com/newsbus/newsbus/internal/app"
	"github.com/newsbus/newsbus/messaging"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", contracts.ServiceGateway)
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
		contracts.DestAuth.Queue(),
		contracts.DestNews.Queue(),
		contracts.DestComments.Queue(),
		contracts.DestFiles.Queue(),
		contracts.DestLogger.Queue(),
	)
	if err != nil {
		return fmt.Errorf("failed to declare queues: %w", err)
	}

	reg, err := messaging.NewRegistry(ctx, broker.Publisher, broker.Subscriber,
		messaging.WithRegistryLogger(logger),
		messaging.WithRequestTimeout(cfg.Rabbit.RequestTimeout),
		messaging.WithReplyQueueDeclarer(broker.Topology),
	)
	if err != nil {
		return err
	}
	defer reg.Close()

	server := gateway.NewServer(gateway.NewClients(reg), cfg.Auth.JWTSecret,
		gateway.WithTimeout(cfg.Rabbit.RequestTimeout),
		gateway.WithLogger(logger),
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()
	logger.Info("gateway listening", "addr", httpServer.Addr)

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
