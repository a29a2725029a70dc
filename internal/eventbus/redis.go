/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus mirrors in-process timeline events to Redis pub/sub so
// other services can follow the timeline.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendsincode/grimnir_timeline/internal/events"
)

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// ChannelPrefix is prepended to the event type, e.g. "timeline:timeline.step".
	ChannelPrefix string

	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultRedisConfig returns default Redis configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:          "localhost:6379",
		ChannelPrefix: "timeline",
		DialTimeout:   5 * time.Second,
		WriteTimeout:  3 * time.Second,
	}
}

// Message is the JSON document published for each event.
type Message struct {
	NodeID    string           `json:"node_id"`
	Type      events.EventType `json:"type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
}

// mirrored lists the event types forwarded to Redis.
var mirrored = []events.EventType{events.EventStepChanged, events.EventPlaybackChanged}

// RedisMirror forwards bus events to Redis channels.
type RedisMirror struct {
	client *redis.Client
	bus    *events.Bus
	cfg    RedisConfig
	nodeID string
	logger zerolog.Logger

	mu     sync.Mutex
	subs   map[events.EventType]events.Subscriber
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisMirror connects to Redis. It fails when Redis is unreachable.
func NewRedisMirror(ctx context.Context, cfg RedisConfig, bus *events.Bus, logger zerolog.Logger) (*RedisMirror, error) {
	def := DefaultRedisConfig()
	if cfg.ChannelPrefix == "" {
		cfg.ChannelPrefix = def.ChannelPrefix
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = def.DialTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return &RedisMirror{
		client: client,
		bus:    bus,
		cfg:    cfg,
		nodeID: uuid.NewString(),
		logger: logger.With().Str("component", "redis-mirror").Logger(),
		subs:   make(map[events.EventType]events.Subscriber),
	}, nil
}

// Channel returns the Redis channel an event type is published on.
func (m *RedisMirror) Channel(eventType events.EventType) string {
	return m.cfg.ChannelPrefix + ":" + string(eventType)
}

// NodeID identifies this process in published messages.
func (m *RedisMirror) NodeID() string {
	return m.nodeID
}

// Start subscribes to the bus before returning, then forwards events
// until Close.
func (m *RedisMirror) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, m.cancel = context.WithCancel(ctx)
	for _, eventType := range mirrored {
		sub := m.bus.Subscribe(eventType)
		m.subs[eventType] = sub
		m.wg.Add(1)
		go m.forward(ctx, eventType, sub)
	}
	m.logger.Info().Str("addr", m.cfg.Addr).Str("prefix", m.cfg.ChannelPrefix).Msg("mirroring timeline events to redis")
}

func (m *RedisMirror) forward(ctx context.Context, eventType events.EventType, sub events.Subscriber) {
	defer m.wg.Done()
	channel := m.Channel(eventType)

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub:
			if !ok {
				return
			}
			data, err := json.Marshal(Message{
				NodeID:    m.nodeID,
				Type:      eventType,
				Payload:   payload,
				Timestamp: time.Now().UTC(),
			})
			if err != nil {
				m.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("marshal event")
				continue
			}
			if err := m.client.Publish(ctx, channel, data).Err(); err != nil && ctx.Err() == nil {
				m.logger.Warn().Err(err).Str("channel", channel).Msg("redis publish failed")
			}
		}
	}
}

// Close stops forwarding and closes the Redis client.
func (m *RedisMirror) Close() error {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()
	m.wg.Wait()

	m.mu.Lock()
	for eventType, sub := range m.subs {
		m.bus.Unsubscribe(eventType, sub)
		delete(m.subs, eventType)
	}
	m.mu.Unlock()

	return m.client.Close()
}
