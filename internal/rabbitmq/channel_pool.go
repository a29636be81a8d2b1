package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ChannelPool manages a pool of AMQP channels on one shared connection.
// Channels are cheap but not free; senders borrow and return them, while
// consumers hold theirs for the subscription lifetime.
type ChannelPool struct {
	manager     *ConnectionManager
	channels    chan *PooledChannel
	maxSize     int
	mu          sync.Mutex
	closed      bool
	activeCount int
}

// PooledChannel wraps an AMQP channel with pool metadata.
type PooledChannel struct {
	*amqp.Channel
	pool     *ChannelPool
	lastUsed time.Time
	id       string
}

// ChannelPoolOption configures the channel pool.
type ChannelPoolOption func(*ChannelPool)

// WithMaxChannels sets the maximum pool size.
func WithMaxChannels(size int) ChannelPoolOption {
	return func(cp *ChannelPool) {
		cp.maxSize = size
	}
}

// NewChannelPool creates a new channel pool.
func NewChannelPool(manager *ConnectionManager, options ...ChannelPoolOption) (*ChannelPool, error) {
	if manager == nil {
		return nil, ErrInvalidConfiguration
	}

	pool := &ChannelPool{
		manager: manager,
		maxSize: 10,
	}

	for _, opt := range options {
		opt(pool)
	}

	if pool.maxSize < 1 {
		return nil, fmt.Errorf("%w: max size must be at least 1", ErrInvalidConfiguration)
	}

	pool.channels = make(chan *PooledChannel, pool.maxSize)

	return pool, nil
}

// Get retrieves a channel from the pool, creating one if under the cap.
func (cp *ChannelPool) Get(ctx context.Context) (*PooledChannel, error) {
	cp.mu.Lock()
	if cp.closed {
		cp.mu.Unlock()
		return nil, ErrChannelPoolClosed
	}
	cp.mu.Unlock()

	select {
	case ch := <-cp.channels:
		if ch.Channel.IsClosed() {
			cp.mu.Lock()
			cp.activeCount--
			cp.mu.Unlock()
			return cp.createChannel()
		}
		ch.lastUsed = time.Now()
		return ch, nil

	default:
		cp.mu.Lock()
		if cp.activeCount < cp.maxSize {
			cp.mu.Unlock()
			return cp.createChannel()
		}
		cp.mu.Unlock()

		// Pool at capacity, wait for a channel to come back.
		select {
		case ch := <-cp.channels:
			if ch.Channel.IsClosed() {
				cp.mu.Lock()
				cp.activeCount--
				cp.mu.Unlock()
				return cp.createChannel()
			}
			ch.lastUsed = time.Now()
			return ch, nil

		case <-ctx.Done():
			return nil, ctx.Err()

		case <-time.After(5 * time.Second):
			return nil, ErrChannelPoolExhausted
		}
	}
}

// Put returns a channel to the pool.
func (cp *ChannelPool) Put(ch *PooledChannel) {
	if ch == nil {
		return
	}

	cp.mu.Lock()
	if cp.closed {
		cp.mu.Unlock()
		ch.Channel.Close()
		return
	}
	cp.mu.Unlock()

	if ch.Channel.IsClosed() {
		cp.mu.Lock()
		cp.activeCount--
		cp.mu.Unlock()
		return
	}

	ch.lastUsed = time.Now()

	select {
	case cp.channels <- ch:
	default:
		// Pool is full.
		ch.Channel.Close()
		cp.mu.Lock()
		cp.activeCount--
		cp.mu.Unlock()
	}
}

// Close closes all channels in the pool.
func (cp *ChannelPool) Close() error {
	cp.mu.Lock()
	if cp.closed {
		cp.mu.Unlock()
		return nil
	}
	cp.closed = true
	cp.mu.Unlock()

	close(cp.channels)

	for ch := range cp.channels {
		if ch != nil && !ch.Channel.IsClosed() {
			ch.Channel.Close()
		}
	}

	return nil
}

// Size returns the current number of live channels.
func (cp *ChannelPool) Size() int {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.activeCount
}

// Execute runs fn with a borrowed channel, returning it afterwards.
func (cp *ChannelPool) Execute(ctx context.Context, fn func(*amqp.Channel) error) error {
	ch, err := cp.Get(ctx)
	if err != nil {
		return err
	}
	defer cp.Put(ch)

	var execErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				execErr = fmt.Errorf("panic in channel execution: %v", r)
			}
		}()
		execErr = fn(ch.Channel)
	}()

	return execErr
}

// createChannel opens a new channel on the shared connection.
func (cp *ChannelPool) createChannel() (*PooledChannel, error) {
	conn, err := cp.manager.GetConnection()
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelCreationFailed, err)
	}

	pooledCh := &PooledChannel{
		Channel:  ch,
		pool:     cp,
		lastUsed: time.Now(),
		id:       uuid.New().String(),
	}

	cp.mu.Lock()
	cp.activeCount++
	cp.mu.Unlock()

	return pooledCh, nil
}
