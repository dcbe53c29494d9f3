package broker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/seventv/common/utils"
	"go.uber.org/zap"
)

type RedisOptions struct {
	Addresses []string
	Username  string
	Password  string
	Database  int
	// how often the link is probed to refresh Connected
	PingInterval time.Duration
}

type redisInst struct {
	client    redis.UniversalClient
	connected atomic.Bool
	cancel    context.CancelFunc
}

func NewRedis(ctx context.Context, o RedisOptions) (Instance, error) {
	if o.PingInterval == 0 {
		o.PingInterval = 5 * time.Second
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    o.Addresses,
		Username: o.Username,
		Password: o.Password,
		DB:       o.Database,
	})

	lctx, cancel := context.WithCancel(ctx)
	inst := &redisInst{
		client: client,
		cancel: cancel,
	}

	go inst.watch(lctx, o.PingInterval)

	return inst, nil
}

func (i *redisInst) watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		pctx, cancel := context.WithTimeout(ctx, interval)
		err := i.client.Ping(pctx).Err()
		cancel()

		up := err == nil
		if prev := i.connected.Swap(up); prev != up {
			if up {
				zap.S().Infow("redis broker connected")
			} else {
				zap.S().Warnw("redis broker unreachable",
					"error", err,
				)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (i *redisInst) Connected() bool {
	return i.connected.Load()
}

func (i *redisInst) Publish(ctx context.Context, channel string, data []byte) error {
	if err := i.client.Publish(ctx, channel, data).Err(); err != nil {
		i.connected.Store(false)

		return err
	}

	return nil
}

func (i *redisInst) Subscribe(ctx context.Context, channels ...string) (<-chan Message, error) {
	ps := i.client.Subscribe(ctx, channels...)

	// wait for the subscription confirmation so a dead broker surfaces as an error here
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()

		return nil, err
	}

	i.connected.Store(true)

	out := make(chan Message, 64)

	go func() {
		defer close(out)
		defer ps.Close()

		in := ps.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}

				select {
				case out <- Message{Channel: msg.Channel, Data: utils.S2B(msg.Payload)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (i *redisInst) Close() error {
	i.cancel()

	return i.client.Close()
}
