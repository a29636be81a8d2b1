package messaging

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsbus/newsbus/contracts"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("NewRegistry subscribes a private reply queue", func(t *testing.T) {
		sub := newFakeSubscriber()
		reg, err := NewRegistry(ctx, &mockPublisher{}, sub, WithRegistryLogger(testLogger()))

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(reg.ReplyQueue(), "reply."))
		assert.Contains(t, sub.handlers, reg.ReplyQueue())
	})

	t.Run("NewRegistry fails when the subscription fails", func(t *testing.T) {
		sub := newFakeSubscriber()
		sub.err = errors.New("channel closed")

		reg, err := NewRegistry(ctx, &mockPublisher{}, sub, WithRegistryLogger(testLogger()))

		assert.Error(t, err)
		assert.Nil(t, reg)
	})

	t.Run("Client is cached per destination", func(t *testing.T) {
		reg, err := NewRegistry(ctx, &mockPublisher{}, newFakeSubscriber(), WithRegistryLogger(testLogger()))
		require.NoError(t, err)

		auth := reg.Client(contracts.DestAuth)
		news := reg.Client(contracts.DestNews)

		assert.Same(t, auth, reg.Client(contracts.DestAuth))
		assert.NotSame(t, auth, news)
	})

	t.Run("clients share the reply router", func(t *testing.T) {
		reg, err := NewRegistry(ctx, &mockPublisher{}, newFakeSubscriber(), WithRegistryLogger(testLogger()))
		require.NoError(t, err)

		auth := reg.Client(contracts.DestAuth)
		news := reg.Client(contracts.DestNews)

		assert.Same(t, auth.router, news.router)
	})

	t.Run("WithRequestTimeout applies to created clients", func(t *testing.T) {
		reg, err := NewRegistry(ctx, &mockPublisher{}, newFakeSubscriber(),
			WithRegistryLogger(testLogger()),
			WithRequestTimeout(3*time.Second),
		)
		require.NoError(t, err)

		assert.Equal(t, 3*time.Second, reg.Client(contracts.DestFiles).timeout)
	})

	t.Run("non-positive timeout keeps the default", func(t *testing.T) {
		reg, err := NewRegistry(ctx, &mockPublisher{}, newFakeSubscriber(),
			WithRegistryLogger(testLogger()),
			WithRequestTimeout(0),
		)
		require.NoError(t, err)

		assert.Equal(t, DefaultRequestTimeout, reg.Client(contracts.DestAuth).timeout)
	})
}
