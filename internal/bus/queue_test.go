package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutosantos82/py-gpt/internal/logger"
)

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func startedBus(t *testing.T, capacity int) *MessageBus {
	t.Helper()
	mb := New(capacity, testLog(t), nil)
	require.NoError(t, mb.Start(context.Background()))
	t.Cleanup(func() { _ = mb.Stop() })
	return mb
}

func TestStartStopLifecycle(t *testing.T) {
	mb := New(4, testLog(t), nil)

	assert.ErrorIs(t, mb.Stop(), ErrNotStarted)

	require.NoError(t, mb.Start(context.Background()))
	assert.True(t, mb.IsStarted())
	assert.ErrorIs(t, mb.Start(context.Background()), ErrAlreadyStarted)

	require.NoError(t, mb.Stop())
	assert.False(t, mb.IsStarted())
}

func TestInboundDelivery(t *testing.T) {
	mb := startedBus(t, 4)
	sub := mb.SubscribeInbound(context.Background())

	msg := NewInboundMessage(ChannelTypeTelegram, "42", "telegram:42", "hello", nil)
	require.NoError(t, mb.PublishInbound(*msg))

	select {
	case got := <-sub:
		assert.Equal(t, ChannelTypeTelegram, got.ChannelType)
		assert.Equal(t, "hello", got.Content)
		assert.False(t, got.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("inbound message never delivered")
	}
}

func TestOutboundFanOut(t *testing.T) {
	mb := startedBus(t, 4)
	first := mb.SubscribeOutbound(context.Background())
	second := mb.SubscribeOutbound(context.Background())

	msg := NewOutboundMessage(ChannelTypeCron, "scheduler", "cron_task_1", "done", nil)
	require.NoError(t, mb.PublishOutbound(*msg))

	for _, sub := range []<-chan OutboundMessage{first, second} {
		select {
		case got := <-sub:
			assert.Equal(t, "done", got.Content)
		case <-time.After(2 * time.Second):
			t.Fatal("subscriber did not receive the message")
		}
	}
}

func TestPublishToStoppedBus(t *testing.T) {
	mb := New(4, testLog(t), nil)

	err := mb.PublishInbound(*NewInboundMessage(ChannelTypeCLI, "u", "s", "x", nil))
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestSubscribeBeforeStartReturnsNil(t *testing.T) {
	mb := New(4, testLog(t), nil)

	assert.Nil(t, mb.SubscribeInbound(context.Background()))
	assert.Nil(t, mb.SubscribeOutbound(context.Background()))
}

func TestStopClosesSubscriberChannels(t *testing.T) {
	mb := New(4, testLog(t), nil)
	require.NoError(t, mb.Start(context.Background()))
	sub := mb.SubscribeInbound(context.Background())

	require.NoError(t, mb.Stop())

	select {
	case _, ok := <-sub:
		assert.False(t, ok, "subscriber channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber channel never closed")
	}
}
