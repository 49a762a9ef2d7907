package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/weftmesh/weft/state"
)

// Redis is the production transport: one pub/sub channel per node on a
// shared Redis broker.
type Redis struct {
	cfg     state.RedisCfg
	channel string
	log     *slog.Logger

	client *redis.Client
	pubsub *redis.PubSub
	out    chan []byte

	mu     sync.Mutex
	closed bool
}

func NewRedis(cfg state.RedisCfg, ownChannel string, log *slog.Logger) *Redis {
	return &Redis{
		cfg:     cfg,
		channel: ownChannel,
		log:     log,
		out:     make(chan []byte, 128),
	}
}

func (r *Redis) Connect(ctx context.Context) error {
	if r.client != nil {
		return nil
	}
	r.client = redis.NewClient(&redis.Options{
		Addr:     r.cfg.Addr,
		Password: r.cfg.Password,
		DB:       r.cfg.DB,
	})
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	r.pubsub = r.client.Subscribe(ctx, r.channel)
	// wait for the subscription to be confirmed before anyone publishes
	if _, err := r.pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s failed: %w", r.channel, err)
	}
	r.log.Info("connected to redis", "addr", r.cfg.Addr, "channel", r.channel)

	go r.pump()
	return nil
}

func (r *Redis) pump() {
	defer close(r.out)
	for msg := range r.pubsub.Channel() {
		r.out <- []byte(msg.Payload)
	}
}

func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	var errs []error
	if r.pubsub != nil {
		errs = append(errs, r.pubsub.Close())
	}
	if r.client != nil {
		errs = append(errs, r.client.Close())
	}
	return errors.Join(errs...)
}

func (r *Redis) Publish(ctx context.Context, channel string, payload []byte) error {
	if r.client == nil {
		return errors.New("transport not connected")
	}
	return r.client.Publish(ctx, channel, payload).Err()
}

func (r *Redis) Broadcast(ctx context.Context, channels []string, payload []byte) error {
	var errs []error
	for _, ch := range channels {
		errs = append(errs, r.Publish(ctx, ch, payload))
	}
	return errors.Join(errs...)
}

func (r *Redis) Receive() <-chan []byte {
	return r.out
}
