package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeliveryHandler processes one inbound delivery. The handler owns the
// acknowledgment decision; the consumer never acks on its behalf.
type DeliveryHandler func(ctx context.Context, delivery amqp.Delivery)

// Consumer manages message consumption from destination queues with
// manual acknowledgment. The prefetch count bounds how many deliveries
// the broker hands out before acks come back.
type Consumer struct {
	pool            *ChannelPool
	prefetchCount   int
	exclusive       bool
	consumerTag     string
	logger          *slog.Logger
	activeConsumers sync.Map
}

// ConsumerOption configures the consumer.
type ConsumerOption func(*Consumer)

// WithPrefetchCount sets the prefetch count.
func WithPrefetchCount(count int) ConsumerOption {
	return func(c *Consumer) {
		c.prefetchCount = count
	}
}

// WithExclusive sets exclusive consumer mode, used for reply queues.
func WithExclusive(exclusive bool) ConsumerOption {
	return func(c *Consumer) {
		c.exclusive = exclusive
	}
}

// WithConsumerTag sets the consumer tag.
func WithConsumerTag(tag string) ConsumerOption {
	return func(c *Consumer) {
		c.consumerTag = tag
	}
}

// WithConsumerLogger sets the logger.
func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		c.logger = logger
	}
}

// NewConsumer creates a new consumer.
func NewConsumer(pool *ChannelPool, options ...ConsumerOption) *Consumer {
	c := &Consumer{
		pool:          pool,
		prefetchCount: 16,
		logger:        slog.Default(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// consumerInfo tracks one active subscription.
type consumerInfo struct {
	queue   string
	channel *PooledChannel
	cancel  context.CancelFunc
	done    chan struct{}
}

// Subscribe starts consuming messages from a queue. The channel is held
// for the subscription lifetime; canceling ctx stops delivery.
func (c *Consumer) Subscribe(ctx context.Context, queue string, handler DeliveryHandler) error {
	ch, err := c.pool.Get(ctx)
	if err != nil {
		return &ConsumerError{
			Queue:     queue,
			Op:        "subscribe",
			Err:       err,
			Timestamp: time.Now(),
		}
	}

	if err := ch.Qos(c.prefetchCount, 0, false); err != nil {
		c.pool.Put(ch)
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := ch.Consume(
		queue,
		c.consumerTag,
		false, // manual ack
		c.exclusive,
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		c.pool.Put(ch)
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	consumerCtx, cancel := context.WithCancel(ctx)

	info := &consumerInfo{
		queue:   queue,
		channel: ch,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	c.activeConsumers.Store(queue, info)

	go c.processDeliveries(consumerCtx, info, deliveries, handler)

	c.logger.Info("subscribed to queue",
		"queue", queue,
		"prefetchCount", c.prefetchCount,
	)

	return nil
}

// processDeliveries feeds inbound deliveries to the handler.
func (c *Consumer) processDeliveries(ctx context.Context, info *consumerInfo, deliveries <-chan amqp.Delivery, handler DeliveryHandler) {
	defer func() {
		close(info.done)
		c.pool.Put(info.channel)
		c.activeConsumers.Delete(info.queue)
		c.logger.Info("consumer stopped", "queue", info.queue)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("delivery channel closed", "queue", info.queue)
				return
			}

			handler(ctx, delivery)
		}
	}
}

// Unsubscribe stops consuming from a queue.
func (c *Consumer) Unsubscribe(queue string) error {
	value, ok := c.activeConsumers.Load(queue)
	if !ok {
		return fmt.Errorf("no active consumer for queue: %s", queue)
	}

	info := value.(*consumerInfo)
	info.cancel()
	<-info.done

	return nil
}

// UnsubscribeAll stops all active consumers.
func (c *Consumer) UnsubscribeAll() error {
	var wg sync.WaitGroup

	c.activeConsumers.Range(func(key, value interface{}) bool {
		wg.Add(1)
		go func(queue string) {
			defer wg.Done()
			if err := c.Unsubscribe(queue); err != nil {
				c.logger.Error("failed to unsubscribe", "queue", queue, "error", err)
			}
		}(key.(string))
		return true
	})

	wg.Wait()
	return nil
}
