package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/internal/rabbitmq"
)

// DefaultRequestTimeout is the fixed ceiling a command waits for its reply.
const DefaultRequestTimeout = 10 * time.Second

// Client sends commands and events to one destination queue. Clients are
// cheap handles over the shared transport and safe for concurrent use.
type Client struct {
	destination contracts.Destination
	publisher   Publisher
	router      *replyRouter
	timeout     time.Duration
	logger      *slog.Logger
}

// Send issues a correlated command and blocks until exactly one reply
// arrives or the ceiling elapses. A permanent failure on the worker side
// surfaces as *contracts.RemoteError; the absence of a reply surfaces as
// *TimeoutError. When out is non-nil the reply body is unmarshaled into it.
func (c *Client) Send(ctx context.Context, pattern string, payload, out any) error {
	env, err := contracts.NewEnvelope(pattern, payload)
	if err != nil {
		return err
	}
	env.CorrelationID = uuid.New().String()
	env.ReplyTo = c.router.queue

	respChan := c.router.register(env.CorrelationID)
	defer c.router.drop(env.CorrelationID)

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	err = c.publisher.Publish(ctx, c.destination.Queue(), rabbitmq.Outbound{
		MessageID:     env.ID,
		CorrelationID: env.CorrelationID,
		ReplyTo:       env.ReplyTo,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("failed to send %q to %s: %w", pattern, c.destination, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case reply := <-respChan:
		if reply.Error != nil {
			return contracts.NewRemoteError(reply.Error)
		}
		if out != nil && len(reply.Body) > 0 {
			if err := json.Unmarshal(reply.Body, out); err != nil {
				return fmt.Errorf("failed to unmarshal %q reply: %w", pattern, err)
			}
		}
		return nil

	case <-timer.C:
		return &TimeoutError{
			Destination: string(c.destination),
			Pattern:     pattern,
			Timeout:     c.timeout,
		}

	case <-ctx.Done():
		return ctx.Err()
	}
}

// Emit publishes a fire-and-forget event. Delivery is at-least-once and
// the caller must not assume the event was processed.
func (c *Client) Emit(ctx context.Context, pattern string, payload any) error {
	env, err := contracts.NewEnvelope(pattern, payload)
	if err != nil {
		return err
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	err = c.publisher.Publish(ctx, c.destination.Queue(), rabbitmq.Outbound{
		MessageID: env.ID,
		Body:      body,
	})
	if err != nil {
		return fmt.Errorf("failed to emit %q to %s: %w", pattern, c.destination, err)
	}
	return nil
}

// replyRouter owns the caller's private reply queue and pairs inbound
// replies with pending requests by correlation id.
type replyRouter struct {
	queue   string
	logger  *slog.Logger
	mu      sync.RWMutex
	pending map[string]chan *contracts.Reply
}

func newReplyRouter(queue string, logger *slog.Logger) *replyRouter {
	return &replyRouter{
		queue:   queue,
		logger:  logger,
		pending: make(map[string]chan *contracts.Reply),
	}
}

// start subscribes to the reply queue.
func (r *replyRouter) start(ctx context.Context, subscriber Subscriber) error {
	return subscriber.Subscribe(ctx, r.queue, r.handleReply)
}

// register creates the pending slot for a correlation id. The channel is
// buffered so a reply never blocks the router.
func (r *replyRouter) register(correlationID string) chan *contracts.Reply {
	ch := make(chan *contracts.Reply, 1)
	r.mu.Lock()
	r.pending[correlationID] = ch
	r.mu.Unlock()
	return ch
}

// drop removes the pending slot; replies arriving afterwards are discarded.
func (r *replyRouter) drop(correlationID string) {
	r.mu.Lock()
	delete(r.pending, correlationID)
	r.mu.Unlock()
}

// handleReply routes one inbound reply. Reply deliveries are always
// acknowledged: a reply that no longer has a waiter is a late reply after
// a caller timeout and is dropped on the floor.
func (r *replyRouter) handleReply(ctx context.Context, d Delivery) {
	defer func() {
		if err := d.Ack(); err != nil {
			r.logger.Error("failed to ack reply", "error", err)
		}
	}()

	var reply contracts.Reply
	if err := json.Unmarshal(d.Body(), &reply); err != nil {
		r.logger.Error("failed to parse reply", "error", err)
		return
	}

	correlationID := reply.CorrelationID
	if correlationID == "" {
		correlationID = d.CorrelationID()
	}
	if correlationID == "" {
		r.logger.Error("reply missing correlation id")
		return
	}

	r.mu.RLock()
	respChan, exists := r.pending[correlationID]
	r.mu.RUnlock()

	if !exists {
		r.logger.Debug("discarding late reply", "correlationId", correlationID)
		return
	}

	select {
	case respChan <- &reply:
	default:
		// Second reply for the same request; at most one is delivered.
		r.logger.Warn("duplicate reply dropped", "correlationId", correlationID)
	}
}
