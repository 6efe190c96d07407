package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/zachittx/inoutboard/internal/codec"
)

const (
	defaultRedisDialTimeout = 5 * time.Second
	defaultRedisMaxIdle     = 4
	defaultRedisIdleTimeout = 4 * time.Minute
	redisSubscribeTimeout   = 5 * time.Second
)

// RedisOptions configures a connection to a Redis-protocol server.
type RedisOptions struct {
	// Addr is host:port of the server.
	Addr string

	// Password is sent with AUTH when non-empty.
	Password string

	// DB is selected with SELECT when non-zero.
	DB int

	// DialTimeout bounds connection setup. Defaults to 5s.
	DialTimeout time.Duration
}

// Redis is an implementation of [Backend] over a Redis-protocol server
// (Redis itself, or the bundled hub).
type Redis struct {
	pool   *redis.Pool
	addr   string
	logger *slog.Logger
}

// NewRedis creates a pooled Redis backend. Connections are dialled
// lazily; use [Redis.Ping] to verify reachability.
func NewRedis(opts RedisOptions, logger *slog.Logger) (*Redis, error) {
	if opts.Addr == "" {
		return nil, errors.New("kv: redis addr is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = defaultRedisDialTimeout
	}

	dialOpts := []redis.DialOption{
		redis.DialConnectTimeout(timeout),
	}
	if opts.Password != "" {
		dialOpts = append(dialOpts, redis.DialPassword(opts.Password))
	}
	if opts.DB != 0 {
		dialOpts = append(dialOpts, redis.DialDatabase(opts.DB))
	}

	pool := &redis.Pool{
		MaxIdle:     defaultRedisMaxIdle,
		IdleTimeout: defaultRedisIdleTimeout,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", opts.Addr, dialOpts...)
		},
	}

	return &Redis{
		pool:   pool,
		addr:   opts.Addr,
		logger: logger,
	}, nil
}

// Ping checks that the server answers.
func (r *Redis) Ping(ctx context.Context) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("kv: redis connect %s: %w", r.addr, err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Do("PING"); err != nil {
		return fmt.Errorf("kv: redis ping %s: %w", r.addr, err)
	}
	return nil
}

// Get returns the value stored under key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("kv: redis connect %s: %w", r.addr, err)
	}
	defer func() { _ = conn.Close() }()

	value, err := redis.Bytes(conn.Do("GET", key))
	if errors.Is(err, redis.ErrNil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv: redis get %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key. Redis keeps no origin; changes are
// announced separately through [RedisNotifier].
func (r *Redis) Set(ctx context.Context, key string, value []byte, _ string) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("kv: redis connect %s: %w", r.addr, err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Do("SET", key, value); err != nil {
		return fmt.Errorf("kv: redis set %q: %w", key, err)
	}
	return nil
}

// Close closes the connection pool.
func (r *Redis) Close() error {
	return r.pool.Close()
}

// RedisNotifier implements [Notifier] over Redis PUBLISH/SUBSCRIBE.
//
// Changes are CBOR-encoded. Messages on the channel that fail to decode
// are dropped.
type RedisNotifier struct {
	pool    *redis.Pool
	channel string
	logger  *slog.Logger
	psc     redis.PubSubConn
	fanout  Fanout

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Notifier subscribes to channel and returns a notifier that delivers
// its messages. It returns once the server has confirmed the
// subscription, so changes published afterwards are not missed.
func (r *Redis) Notifier(ctx context.Context, channel string) (*RedisNotifier, error) {
	conn, err := r.pool.Dial()
	if err != nil {
		return nil, fmt.Errorf("kv: redis subscribe connect %s: %w", r.addr, err)
	}

	psc := redis.PubSubConn{Conn: conn}
	if err := psc.Subscribe(channel); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("kv: redis subscribe %q: %w", channel, err)
	}

	timeout := redisSubscribeTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	switch v := psc.ReceiveWithTimeout(timeout).(type) {
	case redis.Subscription:
		// confirmed
	case error:
		_ = conn.Close()
		return nil, fmt.Errorf("kv: redis subscribe %q: %w", channel, v)
	default:
		_ = conn.Close()
		return nil, fmt.Errorf("kv: redis subscribe %q: unexpected reply %T", channel, v)
	}

	n := &RedisNotifier{
		pool:    r.pool,
		channel: channel,
		logger:  r.logger,
		psc:     psc,
		done:    make(chan struct{}),
	}

	n.wg.Add(1)
	go n.receive()

	r.logger.Debug("redis notifier subscribed", "channel", channel)
	return n, nil
}

// receive reads subscription messages until the connection closes.
// TODO: resubscribe with backoff when the connection drops instead of
// going silent until restart.
func (n *RedisNotifier) receive() {
	defer n.wg.Done()

	for {
		switch v := n.psc.Receive().(type) {
		case redis.Message:
			var c Change
			if err := codec.Unmarshal(v.Data, &c); err != nil {
				n.logger.Debug("dropping undecodable change",
					"channel", v.Channel,
					"error", err,
				)
				continue
			}
			n.fanout.Dispatch(c)

		case redis.Subscription:
			if v.Count == 0 {
				return
			}

		case error:
			select {
			case <-n.done:
			default:
				n.logger.Warn("redis subscription ended", "channel", n.channel, "error", v)
			}
			return
		}
	}
}

// Publish encodes c and publishes it on the notifier's channel.
func (n *RedisNotifier) Publish(ctx context.Context, c Change) error {
	payload, err := codec.Marshal(c)
	if err != nil {
		return fmt.Errorf("kv: encoding change: %w", err)
	}

	conn, err := n.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("kv: redis connect: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Do("PUBLISH", n.channel, payload); err != nil {
		return fmt.Errorf("kv: redis publish %q: %w", n.channel, err)
	}
	return nil
}

// Listen registers fn for changes received on the channel.
func (n *RedisNotifier) Listen(fn func(Change)) func() {
	return n.fanout.Add(fn)
}

// Close unsubscribes and waits for the receive loop to exit.
// Safe to call multiple times.
func (n *RedisNotifier) Close() error {
	var err error
	n.closeOnce.Do(func() {
		close(n.done)
		_ = n.psc.Unsubscribe()
		err = n.psc.Close()
		n.wg.Wait()
	})
	return err
}
