package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/newsbus/newsbus/contracts"
	"github.com/newsbus/newsbus/internal/rabbitmq"
)

func replyDelivery(t *testing.T, reply *contracts.Reply) *mockDelivery {
	t.Helper()
	body, err := json.Marshal(reply)
	require.NoError(t, err)
	d := &mockDelivery{body: body, correlationID: reply.CorrelationID}
	d.On("Ack").Return(nil)
	return d
}

func TestClientSend(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers reply matched by correlation id", func(t *testing.T) {
		sub := newFakeSubscriber()
		pub := &mockPublisher{}
		reg, err := NewRegistry(ctx, pub, sub, WithRegistryLogger(testLogger()))
		require.NoError(t, err)

		pub.On("Publish", mock.Anything, "auth", mock.Anything).Run(func(args mock.Arguments) {
			out := args.Get(2).(rabbitmq.Outbound)
			assert.Equal(t, reg.ReplyQueue(), out.ReplyTo)
			reply, rerr := contracts.NewReply(out.CorrelationID, map[string]string{"token": "abc"})
			require.NoError(t, rerr)
			sub.deliver(ctx, reg.ReplyQueue(), replyDelivery(t, reply))
		}).Return(nil)

		var resp struct {
			Token string `json:"token"`
		}
		err = reg.Client(contracts.DestAuth).Send(ctx, "login", map[string]string{"email": "a@b.c"}, &resp)

		require.NoError(t, err)
		assert.Equal(t, "abc", resp.Token)
	})

	t.Run("carries the command envelope on the wire", func(t *testing.T) {
		sub := newFakeSubscriber()
		pub := &mockPublisher{}
		reg, err := NewRegistry(ctx, pub, sub, WithRegistryLogger(testLogger()))
		require.NoError(t, err)

		pub.On("Publish", mock.Anything, "news", mock.Anything).Run(func(args mock.Arguments) {
			out := args.Get(2).(rabbitmq.Outbound)
			var env contracts.Envelope
			require.NoError(t, json.Unmarshal(out.Body, &env))
			assert.Equal(t, "find-one-news", env.Pattern)
			assert.True(t, env.IsCommand())
			assert.Equal(t, out.CorrelationID, env.CorrelationID)
			reply, rerr := contracts.NewReply(out.CorrelationID, nil)
			require.NoError(t, rerr)
			sub.deliver(ctx, reg.ReplyQueue(), replyDelivery(t, reply))
		}).Return(nil)

		err = reg.Client(contracts.DestNews).Send(ctx, "find-one-news", map[string]int{"id": 7}, nil)
		require.NoError(t, err)
	})

	t.Run("error reply surfaces as RemoteError", func(t *testing.T) {
		sub := newFakeSubscriber()
		pub := &mockPublisher{}
		reg, err := NewRegistry(ctx, pub, sub, WithRegistryLogger(testLogger()))
		require.NoError(t, err)

		pub.On("Publish", mock.Anything, "auth", mock.Anything).Run(func(args mock.Arguments) {
			out := args.Get(2).(rabbitmq.Outbound)
			reply := contracts.NewErrorReply(out.CorrelationID, contracts.NewNotFoundError("user 9 not found"))
			sub.deliver(ctx, reg.ReplyQueue(), replyDelivery(t, reply))
		}).Return(nil)

		err = reg.Client(contracts.DestAuth).Send(ctx, "get-user-by-id", map[string]int{"id": 9}, nil)

		var remote *contracts.RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, 404, remote.Status)
		assert.Equal(t, "NotFoundError", remote.Name)
		assert.Equal(t, "user 9 not found", remote.Message)
	})

	t.Run("missing reply times out with TimeoutError", func(t *testing.T) {
		sub := newFakeSubscriber()
		pub := &mockPublisher{}
		reg, err := NewRegistry(ctx, pub, sub,
			WithRegistryLogger(testLogger()),
			WithRequestTimeout(20*time.Millisecond),
		)
		require.NoError(t, err)
		pub.On("Publish", mock.Anything, "files", mock.Anything).Return(nil)

		err = reg.Client(contracts.DestFiles).Send(ctx, "get-files-by-news-id", map[string]int{"newsId": 1}, nil)

		var timeout *TimeoutError
		require.ErrorAs(t, err, &timeout)
		assert.ErrorIs(t, err, ErrRequestTimeout)
		assert.Equal(t, "files", timeout.Destination)
		assert.Equal(t, "get-files-by-news-id", timeout.Pattern)
	})

	t.Run("late reply after timeout is acked and discarded", func(t *testing.T) {
		sub := newFakeSubscriber()
		pub := &mockPublisher{}
		reg, err := NewRegistry(ctx, pub, sub,
			WithRegistryLogger(testLogger()),
			WithRequestTimeout(10*time.Millisecond),
		)
		require.NoError(t, err)

		var correlationID string
		pub.On("Publish", mock.Anything, "news", mock.Anything).Run(func(args mock.Arguments) {
			correlationID = args.Get(2).(rabbitmq.Outbound).CorrelationID
		}).Return(nil)

		err = reg.Client(contracts.DestNews).Send(ctx, "find-all-news", nil, nil)
		require.ErrorIs(t, err, ErrRequestTimeout)

		reply, rerr := contracts.NewReply(correlationID, map[string]string{"late": "yes"})
		require.NoError(t, rerr)
		d := replyDelivery(t, reply)
		sub.deliver(ctx, reg.ReplyQueue(), d)

		d.AssertNumberOfCalls(t, "Ack", 1)
	})

	t.Run("at most one reply is consumed", func(t *testing.T) {
		sub := newFakeSubscriber()
		pub := &mockPublisher{}
		reg, err := NewRegistry(ctx, pub, sub, WithRegistryLogger(testLogger()))
		require.NoError(t, err)

		pub.On("Publish", mock.Anything, "auth", mock.Anything).Run(func(args mock.Arguments) {
			out := args.Get(2).(rabbitmq.Outbound)
			first, rerr := contracts.NewReply(out.CorrelationID, map[string]int{"n": 1})
			require.NoError(t, rerr)
			second, rerr := contracts.NewReply(out.CorrelationID, map[string]int{"n": 2})
			require.NoError(t, rerr)
			sub.deliver(ctx, reg.ReplyQueue(), replyDelivery(t, first))
			sub.deliver(ctx, reg.ReplyQueue(), replyDelivery(t, second))
		}).Return(nil)

		var resp struct {
			N int `json:"n"`
		}
		err = reg.Client(contracts.DestAuth).Send(ctx, "get-all-users", nil, &resp)

		require.NoError(t, err)
		assert.Equal(t, 1, resp.N)
	})

	t.Run("publish failure is returned without waiting", func(t *testing.T) {
		sub := newFakeSubscriber()
		pub := &mockPublisher{}
		reg, err := NewRegistry(ctx, pub, sub, WithRegistryLogger(testLogger()))
		require.NoError(t, err)
		pub.On("Publish", mock.Anything, "auth", mock.Anything).Return(errors.New("broker down"))

		start := time.Now()
		err = reg.Client(contracts.DestAuth).Send(ctx, "login", nil, nil)

		require.Error(t, err)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("context cancellation stops the wait", func(t *testing.T) {
		sub := newFakeSubscriber()
		pub := &mockPublisher{}
		reg, err := NewRegistry(ctx, pub, sub, WithRegistryLogger(testLogger()))
		require.NoError(t, err)
		pub.On("Publish", mock.Anything, "auth", mock.Anything).Return(nil)

		cctx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		err = reg.Client(contracts.DestAuth).Send(cctx, "login", nil, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClientEmit(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes event without correlation fields", func(t *testing.T) {
		sub := newFakeSubscriber()
		pub := &mockPublisher{}
		reg, err := NewRegistry(ctx, pub, sub, WithRegistryLogger(testLogger()))
		require.NoError(t, err)
		pub.On("Publish", mock.Anything, "logger", mock.Anything).Return(nil)

		err = reg.Client(contracts.DestLogger).Emit(ctx, "create-log", map[string]string{"message": "hi"})

		require.NoError(t, err)
		out := pub.Calls[0].Arguments.Get(2).(rabbitmq.Outbound)
		assert.Empty(t, out.CorrelationID)
		assert.Empty(t, out.ReplyTo)

		var env contracts.Envelope
		require.NoError(t, json.Unmarshal(out.Body, &env))
		assert.Equal(t, "create-log", env.Pattern)
		assert.False(t, env.IsCommand())
	})

	t.Run("returns publish errors", func(t *testing.T) {
		sub := newFakeSubscriber()
		pub := &mockPublisher{}
		reg, err := NewRegistry(ctx, pub, sub, WithRegistryLogger(testLogger()))
		require.NoError(t, err)
		pub.On("Publish", mock.Anything, "logger", mock.Anything).Return(errors.New("broker down"))

		err = reg.Client(contracts.DestLogger).Emit(ctx, "create-log", nil)
		assert.Error(t, err)
	})
}
