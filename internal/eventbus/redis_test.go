package eventbus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendsincode/grimnir_timeline/internal/events"
)

func TestRedisMirrorPublishesEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	bus := events.NewBus()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mirror, err := NewRedisMirror(ctx, RedisConfig{Addr: mr.Addr(), ChannelPrefix: "test"}, bus, zerolog.Nop())
	require.NoError(t, err)
	mirror.Start(ctx)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	pubsub := client.Subscribe(ctx, mirror.Channel(events.EventStepChanged))
	defer pubsub.Close()
	_, err = pubsub.Receive(ctx)
	require.NoError(t, err)

	bus.Publish(events.EventStepChanged, events.Payload{"index": 3, "cause": "tick"})

	select {
	case msg := <-pubsub.Channel():
		assert.Equal(t, "test:timeline.step", msg.Channel)
		var got Message
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, events.EventStepChanged, got.Type)
		assert.Equal(t, mirror.NodeID(), got.NodeID)
		assert.Equal(t, float64(3), got.Payload["index"])
		assert.Equal(t, "tick", got.Payload["cause"])
	case <-ctx.Done():
		t.Fatal("no message mirrored to redis")
	}

	require.NoError(t, mirror.Close())
	assert.Equal(t, 0, bus.Subscribers(events.EventStepChanged))
	assert.Equal(t, 0, bus.Subscribers(events.EventPlaybackChanged))
}

func TestNewRedisMirrorUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisMirror(context.Background(), RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond}, events.NewBus(), zerolog.Nop())
	assert.Error(t, err)
}
