// Package app holds the startup plumbing shared by every binary: broker
// wiring and the database handle.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/newsbus/newsbus/configs"
	"github.com/newsbus/newsbus/internal/rabbitmq"
	"github.com/newsbus/newsbus/messaging"
)

// Broker bundles the transport pieces a binary needs.
type Broker struct {
	Conn       *rabbitmq.ConnectionManager
	Pool       *rabbitmq.ChannelPool
	Topology   *rabbitmq.TopologyManager
	Publisher  *rabbitmq.Publisher
	Subscriber messaging.Subscriber
}

// ConnectBroker dials the broker and builds the channel pool, publisher
// and consumer on top of it.
func ConnectBroker(ctx context.Context, cfg configs.RabbitConfig, logger *slog.Logger) (*Broker, error) {
	conn := rabbitmq.NewConnectionManager(cfg.URL,
		rabbitmq.WithConnectionLogger(logger),
		rabbitmq.WithReconnectDelay(cfg.ReconnectDelay),
		rabbitmq.WithMaxReconnects(cfg.MaxReconnects),
	)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	pool, err := rabbitmq.NewChannelPool(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel pool: %w", err)
	}

	consumer := rabbitmq.NewConsumer(pool,
		rabbitmq.WithPrefetchCount(cfg.PrefetchCount),
		rabbitmq.WithConsumerLogger(logger),
	)

	return &Broker{
		Conn:       conn,
		Pool:       pool,
		Topology:   rabbitmq.NewTopologyManager(pool),
		Publisher:  rabbitmq.NewPublisher(pool),
		Subscriber: messaging.NewAMQPSubscriber(consumer),
	}, nil
}

// Close releases the pool and the connection, in that order.
func (b *Broker) Close() {
	if err := b.Pool.Close(); err != nil {
		slog.Warn("failed to close channel pool", "error", err)
	}
	if err := b.Conn.Close(); err != nil {
		slog.Warn("failed to close broker connection", "error", err)
	}
}

// OpenDB opens and pings the MySQL handle with the configured pool sizes.
func OpenDB(ctx context.Context, cfg configs.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
