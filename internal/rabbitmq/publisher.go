package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Outbound is one message headed for a destination queue. Correlation id
// and reply-to are mirrored into the AMQP properties so the consuming
// side never has to parse the body to route a reply.
type Outbound struct {
	MessageID     string
	CorrelationID string
	ReplyTo       string
	Body          []byte
}

// Publisher publishes messages to destination queues over the default
// exchange with publisher confirms.
type Publisher struct {
	pool           *ChannelPool
	confirmTimeout time.Duration
	publishTimeout time.Duration
	maxRetries     int
}

// PublisherOption configures the publisher.
type PublisherOption func(*Publisher)

// WithConfirmTimeout sets the confirmation timeout.
func WithConfirmTimeout(timeout time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.confirmTimeout = timeout
	}
}

// WithPublishTimeout sets the overall publish timeout.
func WithPublishTimeout(timeout time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.publishTimeout = timeout
	}
}

// WithPublishRetries sets the maximum number of publish retries.
func WithPublishRetries(retries int) PublisherOption {
	return func(p *Publisher) {
		p.maxRetries = retries
	}
}

// NewPublisher creates a new publisher.
func NewPublisher(pool *ChannelPool, options ...PublisherOption) *Publisher {
	p := &Publisher{
		pool:           pool,
		confirmTimeout: 5 * time.Second,
		publishTimeout: 10 * time.Second,
		maxRetries:     3,
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// Publish sends one message to the named queue and waits for the broker
// confirm, retrying with linear backoff on failure.
func (p *Publisher) Publish(ctx context.Context, queue string, msg Outbound) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.publishTimeout)
		defer cancel()
	}

	publishing := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     msg.MessageID,
		CorrelationId: msg.CorrelationID,
		ReplyTo:       msg.ReplyTo,
		Timestamp:     time.Now().UTC(),
		Body:          msg.Body,
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := p.publishWithConfirm(ctx, queue, publishing)
		if err == nil {
			return nil
		}

		lastErr = err
	}

	return &PublishError{
		Queue:     queue,
		Err:       fmt.Errorf("failed after %d attempts: %w", p.maxRetries+1, lastErr),
		Timestamp: time.Now(),
	}
}

// publishWithConfirm publishes a single message and waits for the confirm.
func (p *Publisher) publishWithConfirm(ctx context.Context, queue string, msg amqp.Publishing) error {
	ch, err := p.pool.Get(ctx)
	if err != nil {
		return err
	}
	defer p.pool.Put(ch)

	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("failed to enable confirms: %w", err)
	}

	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	returns := ch.NotifyReturn(make(chan amqp.Return, 1))

	if err := ch.PublishWithContext(
		ctx,
		"", // default exchange, routing key is the queue name
		queue,
		false, // mandatory
		false, // immediate
		msg,
	); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}

	select {
	case confirm := <-confirms:
		if !confirm.Ack {
			return ErrPublishNotConfirmed
		}
		return nil

	case ret := <-returns:
		return fmt.Errorf("message returned: %s", ret.ReplyText)

	case <-time.After(p.confirmTimeout):
		return fmt.Errorf("timeout waiting for confirmation")

	case <-ctx.Done():
		return ctx.Err()
	}
}
