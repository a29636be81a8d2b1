package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newsbus/newsbus/contracts"
)

// Registry hands out per-destination Clients that share one reply queue,
// one publisher and one subscription. A process creates a single Registry
// at startup and asks it for clients as needed.
type Registry struct {
	publisher Publisher
	router    *replyRouter
	timeout   time.Duration
	declarer  ReplyQueueDeclarer
	logger    *slog.Logger

	mu      sync.Mutex
	clients map[contracts.Destination]*Client
	closed  bool
}

// ReplyQueueDeclarer declares the private reply queue on the broker
// before the registry subscribes to it. *rabbitmq.TopologyManager
// satisfies it.
type ReplyQueueDeclarer interface {
	DeclareReplyQueue(ctx context.Context, name string) error
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithReplyQueueDeclarer declares the reply queue at startup.
func WithReplyQueueDeclarer(declarer ReplyQueueDeclarer) RegistryOption {
	return func(r *Registry) { r.declarer = declarer }
}

// WithRequestTimeout overrides the reply ceiling applied to every Send.
func WithRequestTimeout(timeout time.Duration) RegistryOption {
	return func(r *Registry) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithRegistryLogger sets a custom logger.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry declares the caller's private reply queue and starts routing
// replies on it. The subscriber must already be connected.
func NewRegistry(ctx context.Context, publisher Publisher, subscriber Subscriber, opts ...RegistryOption) (*Registry, error) {
	replyQueue := fmt.Sprintf("reply.%s", uuid.New().String()[:8])

	r := &Registry{
		publisher: publisher,
		timeout:   DefaultRequestTimeout,
		logger:    slog.Default(),
		clients:   make(map[contracts.Destination]*Client),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.declarer != nil {
		if err := r.declarer.DeclareReplyQueue(ctx, replyQueue); err != nil {
			return nil, fmt.Errorf("failed to declare reply queue %s: %w", replyQueue, err)
		}
	}

	r.router = newReplyRouter(replyQueue, r.logger)
	if err := r.router.start(ctx, subscriber); err != nil {
		return nil, fmt.Errorf("failed to start reply routing on %s: %w", replyQueue, err)
	}

	r.logger.Info("messaging registry started", "replyQueue", replyQueue)
	return r, nil
}

// Client returns the client for a destination, creating it on first use.
func (r *Registry) Client(destination contracts.Destination) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[destination]; ok {
		return c
	}

	c := &Client{
		destination: destination,
		publisher:   r.publisher,
		router:      r.router,
		timeout:     r.timeout,
		logger:      r.logger.With("destination", string(destination)),
	}
	r.clients[destination] = c
	return c
}

// ReplyQueue reports the name of the private reply queue.
func (r *Registry) ReplyQueue() string {
	return r.router.queue
}

// Close marks the registry closed. The underlying transport is owned by
// the caller and shut down separately.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}
