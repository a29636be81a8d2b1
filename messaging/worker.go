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

// DefaultHandlerTimeout bounds a single handler invocation on the worker.
const DefaultHandlerTimeout = 30 * time.Second

// Emitter is the fire-and-forget half of a Client, enough for services
// that only publish events such as create-log.
type Emitter interface {
	Emit(ctx context.Context, pattern string, payload any) error
}

// DecodePayload unmarshals a handler payload, reporting malformed input
// as a permanent validation failure.
func DecodePayload(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return contracts.NewValidationError("malformed payload: %v", err)
	}
	return nil
}

// HandlerFunc processes one decoded payload and returns the reply value.
// Returning a permanent contracts.DomainError rejects the message for
// good; any other error requeues it for another attempt.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

// Worker consumes one destination queue and dispatches messages to
// pattern handlers with manual acknowledgement.
type Worker struct {
	destination contracts.Destination
	subscriber  Subscriber
	publisher   Publisher
	timeout     time.Duration
	logger      *slog.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithHandlerTimeout bounds each handler invocation.
func WithHandlerTimeout(timeout time.Duration) WorkerOption {
	return func(w *Worker) {
		if timeout > 0 {
			w.timeout = timeout
		}
	}
}

// WithWorkerLogger sets a custom logger.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorker creates a worker for one destination queue.
func NewWorker(destination contracts.Destination, subscriber Subscriber, publisher Publisher, opts ...WorkerOption) *Worker {
	w := &Worker{
		destination: destination,
		subscriber:  subscriber,
		publisher:   publisher,
		timeout:     DefaultHandlerTimeout,
		logger:      slog.Default(),
		handlers:    make(map[string]HandlerFunc),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("queue", destination.Queue())
	return w
}

// Handle registers the handler for a pattern. Registering the same
// pattern twice replaces the previous handler.
func (w *Worker) Handle(pattern string, fn HandlerFunc) {
	w.mu.Lock()
	w.handlers[pattern] = fn
	w.mu.Unlock()
}

// Start begins consuming the destination queue.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.subscriber.Subscribe(ctx, w.destination.Queue(), w.handleDelivery); err != nil {
		return fmt.Errorf("failed to start worker on %s: %w", w.destination.Queue(), err)
	}
	w.logger.Info("worker started", "patterns", w.patterns())
	return nil
}

// Stop cancels the queue subscription.
func (w *Worker) Stop() error {
	return w.subscriber.Unsubscribe(w.destination.Queue())
}

func (w *Worker) patterns() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.handlers))
	for p := range w.handlers {
		out = append(out, p)
	}
	return out
}

// handleDelivery settles every delivery exactly once: ack on success and
// on permanent failure, requeue on transient failure. Malformed envelopes
// and unknown patterns are acked so they cannot poison the queue.
func (w *Worker) handleDelivery(ctx context.Context, d Delivery) {
	guard := &deliveryGuard{delivery: d, logger: w.logger}
	defer guard.settle()

	var env contracts.Envelope
	if err := json.Unmarshal(d.Body(), &env); err != nil {
		w.logger.Error("discarding malformed message", "error", err)
		return
	}

	log := w.logger.With("pattern", env.Pattern, "messageId", env.ID)

	w.mu.RLock()
	handler, ok := w.handlers[env.Pattern]
	w.mu.RUnlock()
	if !ok {
		log.Error("no handler registered, discarding message")
		return
	}

	result, err := w.invoke(ctx, handler, env.Body)
	if err != nil {
		if contracts.IsPermanent(err) {
			log.Warn("rejecting message", "error", err)
			w.replyError(ctx, &env, err, log)
			return
		}
		if d.Redelivered() {
			log.Error("handler failed on redelivery, requeueing", "error", err)
		} else {
			log.Error("handler failed, requeueing", "error", err)
		}
		guard.requeue()
		return
	}

	if env.IsCommand() {
		if !w.replySuccess(ctx, &env, result, log) {
			guard.requeue()
			return
		}
	}
}

// invoke runs the handler under the worker timeout, converting panics
// into transient errors so the delivery is requeued, not lost.
func (w *Worker) invoke(ctx context.Context, handler HandlerFunc, payload json.RawMessage) (result any, err error) {
	hctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(hctx, payload)
}

// replySuccess publishes the success reply for a command. Reports false
// when the reply could not be published, in which case the delivery is
// requeued so the caller still gets an answer on retry.
func (w *Worker) replySuccess(ctx context.Context, env *contracts.Envelope, result any, log *slog.Logger) bool {
	reply, err := contracts.NewReply(env.CorrelationID, result)
	if err != nil {
		log.Error("failed to encode reply", "error", err)
		w.replyError(ctx, env, fmt.Errorf("failed to encode reply: %w", err), log)
		return true
	}
	if err := w.publish(ctx, env, reply); err != nil {
		log.Error("failed to publish reply", "error", err)
		return false
	}
	return true
}

// replyError publishes an error reply when the message is a command.
// Events have nobody waiting, so errors on events are only logged.
func (w *Worker) replyError(ctx context.Context, env *contracts.Envelope, cause error, log *slog.Logger) {
	if !env.IsCommand() {
		return
	}
	reply := contracts.NewErrorReply(env.CorrelationID, cause)
	if err := w.publish(ctx, env, reply); err != nil {
		log.Error("failed to publish error reply", "error", err)
	}
}

func (w *Worker) publish(ctx context.Context, env *contracts.Envelope, reply *contracts.Reply) error {
	body, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}
	return w.publisher.Publish(ctx, env.ReplyTo, rabbitmq.Outbound{
		MessageID:     uuid.New().String(),
		CorrelationID: env.CorrelationID,
		Body:          body,
	})
}

// deliveryGuard guarantees a delivery is settled exactly once. The zero
// action is ack; requeue switches it to a nack with requeue.
type deliveryGuard struct {
	delivery Delivery
	logger   *slog.Logger
	settled  bool
	nack     bool
}

func (g *deliveryGuard) requeue() {
	g.nack = true
}

func (g *deliveryGuard) settle() {
	if g.settled {
		g.logger.Error("delivery settled twice, ignoring second settle")
		return
	}
	g.settled = true

	var err error
	if g.nack {
		err = g.delivery.Nack(true)
	} else {
		err = g.delivery.Ack()
	}
	if err != nil {
		g.logger.Error("failed to settle delivery", "requeue", g.nack, "error", err)
	}
}
