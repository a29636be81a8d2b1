package messaging

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/newsbus/newsbus/internal/rabbitmq"
)

// Publisher is the send half of the transport.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg rabbitmq.Outbound) error
}

// Delivery is one broker delivery of a message to a consumer. It is owned
// exclusively by the consuming worker for its lifetime and requires
// exactly one acknowledgment decision.
type Delivery interface {
	Body() []byte
	CorrelationID() string
	ReplyTo() string
	Redelivered() bool
	Ack() error
	Nack(requeue bool) error
}

// DeliveryFunc handles one inbound delivery.
type DeliveryFunc func(ctx context.Context, d Delivery)

// Subscriber is the receive half of the transport. Implementations use
// manual acknowledgment; the handler owns the ack decision.
type Subscriber interface {
	Subscribe(ctx context.Context, queue string, fn DeliveryFunc) error
	Unsubscribe(queue string) error
}

// amqpDelivery adapts an AMQP delivery to the Delivery interface.
type amqpDelivery struct {
	d amqp.Delivery
}

func (a amqpDelivery) Body() []byte          { return a.d.Body }
func (a amqpDelivery) CorrelationID() string { return a.d.CorrelationId }
func (a amqpDelivery) ReplyTo() string       { return a.d.ReplyTo }
func (a amqpDelivery) Redelivered() bool     { return a.d.Redelivered }
func (a amqpDelivery) Ack() error            { return a.d.Ack(false) }
func (a amqpDelivery) Nack(requeue bool) error {
	return a.d.Nack(false, requeue)
}

// amqpSubscriber adapts the rabbitmq consumer to the Subscriber interface.
type amqpSubscriber struct {
	consumer *rabbitmq.Consumer
}

// NewAMQPSubscriber wraps a rabbitmq consumer as a Subscriber.
func NewAMQPSubscriber(consumer *rabbitmq.Consumer) Subscriber {
	return &amqpSubscriber{consumer: consumer}
}

func (s *amqpSubscriber) Subscribe(ctx context.Context, queue string, fn DeliveryFunc) error {
	return s.consumer.Subscribe(ctx, queue, func(ctx context.Context, d amqp.Delivery) {
		fn(ctx, amqpDelivery{d: d})
	})
}

func (s *amqpSubscriber) Unsubscribe(queue string) error {
	return s.consumer.Unsubscribe(queue)
}
