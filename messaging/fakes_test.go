package messaging

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/newsbus/newsbus/internal/rabbitmq"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockDelivery is a testify mock for the Delivery interface.
type mockDelivery struct {
	mock.Mock
	body          []byte
	correlationID string
	replyTo       string
	redelivered   bool
}

func (m *mockDelivery) Body() []byte          { return m.body }
func (m *mockDelivery) CorrelationID() string { return m.correlationID }
func (m *mockDelivery) ReplyTo() string       { return m.replyTo }
func (m *mockDelivery) Redelivered() bool     { return m.redelivered }

func (m *mockDelivery) Ack() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockDelivery) Nack(requeue bool) error {
	args := m.Called(requeue)
	return args.Error(0)
}

// mockPublisher is a testify mock for the Publisher interface.
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, queue string, msg rabbitmq.Outbound) error {
	args := m.Called(ctx, queue, msg)
	return args.Error(0)
}

// fakeSubscriber captures the handler registered per queue so tests can
// inject deliveries directly.
type fakeSubscriber struct {
	mu       sync.Mutex
	handlers map[string]DeliveryFunc
	err      error
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{handlers: make(map[string]DeliveryFunc)}
}

func (s *fakeSubscriber) Subscribe(ctx context.Context, queue string, fn DeliveryFunc) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.handlers[queue] = fn
	s.mu.Unlock()
	return nil
}

func (s *fakeSubscriber) Unsubscribe(queue string) error {
	s.mu.Lock()
	delete(s.handlers, queue)
	s.mu.Unlock()
	return nil
}

// deliver pushes one delivery through the handler registered for queue.
func (s *fakeSubscriber) deliver(ctx context.Context, queue string, d Delivery) {
	s.mu.Lock()
	fn := s.handlers[queue]
	s.mu.Unlock()
	if fn != nil {
		fn(ctx, d)
	}
}
