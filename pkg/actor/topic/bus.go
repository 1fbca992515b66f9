// Package topic holds the pub/sub side of the actor framework: the Bus the
// request and response topics live on, the Handler and Forwarder that route
// responses to waiting operations by key, and the operator and operation
// base used by topic-based actors such as APPC LCM.
package topic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrBusClosed is returned by a closed bus.
var ErrBusClosed = errors.New("topic bus closed")

// Subscription delivers the messages of one topic.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

// Bus publishes to and subscribes to named topics.
type Bus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string) (Subscription, error)
	Close() error
}

const subscriptionBuffer = 64

// MemoryBus is an in-process Bus. Every subscriber of a topic receives every
// message published after it subscribed.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySubscription]struct{}
	closed bool
}

// NewMemoryBus returns an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[*memorySubscription]struct{})}
}

type memorySubscription struct {
	bus   *MemoryBus
	topic string
	ch    chan []byte
	done  chan struct{}
	once  sync.Once
}

func (s *memorySubscription) Messages() <-chan []byte { return s.ch }

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.bus.remove(s)
		close(s.done)
	})
	return nil
}

// Publish delivers payload to the current subscribers of topic.
func (b *MemoryBus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrBusClosed
	}
	targets := make([]*memorySubscription, 0, len(b.subs[topic]))
	for s := range b.subs[topic] {
		targets = append(targets, s)
	}
	b.mu.RUnlock()

	msg := append([]byte(nil), payload...)
	for _, s := range targets {
		select {
		case s.ch <- msg:
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registers a subscriber of topic.
func (b *MemoryBus) Subscribe(_ context.Context, topic string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}
	s := &memorySubscription{
		bus:   b,
		topic: topic,
		ch:    make(chan []byte, subscriptionBuffer),
		done:  make(chan struct{}),
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*memorySubscription]struct{})
	}
	b.subs[topic][s] = struct{}{}
	return s, nil
}

func (b *MemoryBus) remove(s *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs[s.topic], s)
}

// Close refuses further use of the bus.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// RedisConfig configures a RedisBus.
type RedisConfig struct {
	Address        string `json:"address"`
	Password       string `json:"password,omitempty"`
	Database       int    `json:"database,omitempty"`
	PoolSize       int    `json:"poolSize,omitempty"`
	DialTimeoutSec int    `json:"dialTimeoutSec,omitempty"`
	MaxRetries     int    `json:"maxRetries,omitempty"`
}

// RedisBus maps topics onto Redis pub/sub channels.
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus connects to Redis and verifies the connection.
func NewRedisBus(ctx context.Context, cfg RedisConfig) (*RedisBus, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}

	opts := &redis.Options{
		Addr:       cfg.Address,
		Password:   cfg.Password,
		DB:         cfg.Database,
		PoolSize:   cfg.PoolSize,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.DialTimeoutSec > 0 {
		opts.DialTimeout = time.Duration(cfg.DialTimeoutSec) * time.Second
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisBus{client: rdb}, nil
}

// NewRedisBusFromClient wraps an existing client.
func NewRedisBusFromClient(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

// Publish publishes payload on the topic's channel.
func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe subscribes to the topic's channel, waiting for Redis to
// confirm the subscription.
func (b *RedisBus) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	ps := b.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	s := &redisSubscription{ps: ps, ch: make(chan []byte, subscriptionBuffer), done: make(chan struct{})}
	go s.pump()
	return s, nil
}

// Close closes the Redis client.
func (b *RedisBus) Close() error {
	return b.client.Close()
}

type redisSubscription struct {
	ps   *redis.PubSub
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func (s *redisSubscription) pump() {
	defer close(s.ch)
	for msg := range s.ps.Channel() {
		select {
		case s.ch <- []byte(msg.Payload):
		case <-s.done:
			return
		}
	}
}

func (s *redisSubscription) Messages() <-chan []byte { return s.ch }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
