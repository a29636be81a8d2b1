package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// TopologyManager declares the queue topology: one durable queue per
// destination, plus exclusive auto-delete reply queues for callers.
type TopologyManager struct {
	pool *ChannelPool
}

// NewTopologyManager creates a new topology manager.
func NewTopologyManager(pool *ChannelPool) *TopologyManager {
	return &TopologyManager{pool: pool}
}

// DeclareDestinations declares each named queue as durable. Destinations
// are declared once at process startup and survive broker restarts.
func (tm *TopologyManager) DeclareDestinations(ctx context.Context, queues ...string) error {
	return tm.pool.Execute(ctx, func(ch *amqp.Channel) error {
		for _, queue := range queues {
			_, err := ch.QueueDeclare(
				queue,
				true,  // durable
				false, // auto-delete
				false, // exclusive
				false, // no-wait
				nil,
			)
			if err != nil {
				return fmt.Errorf("failed to declare queue %s: %w", queue, err)
			}
		}
		return nil
	})
}

// DeclareReplyQueue declares a caller-private reply queue. It is exclusive
// to this connection and removed by the broker when the caller goes away.
func (tm *TopologyManager) DeclareReplyQueue(ctx context.Context, name string) error {
	return tm.pool.Execute(ctx, func(ch *amqp.Channel) error {
		_, err := ch.QueueDeclare(
			name,
			false, // durable
			true,  // auto-delete
			true,  // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to declare reply queue %s: %w", name, err)
		}
		return nil
	})
}

// QueueDepth returns the message count of a queue, used by tests and
// operational checks.
func (tm *TopologyManager) QueueDepth(ctx context.Context, name string) (int, error) {
	var depth int
	err := tm.pool.Execute(ctx, func(ch *amqp.Channel) error {
		q, err := ch.QueueInspect(name)
		if err != nil {
			return err
		}
		depth = q.Messages
		return nil
	})
	return depth, err
}
