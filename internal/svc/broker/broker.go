package broker

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotConnected = errors.New("broker is not connected")

type Message struct {
	Channel string
	Data    []byte
}

// Instance is a best-effort publish/subscribe transport shared by every API instance
type Instance interface {
	// Connected reports the last known state of the link to the broker
	Connected() bool
	Publish(ctx context.Context, channel string, data []byte) error
	// Subscribe listens on the given channels until ctx is done.
	// The returned channel is closed when the subscription ends for any reason.
	Subscribe(ctx context.Context, channels ...string) (<-chan Message, error)
	Close() error
}

type Mode string

const (
	ModeRedis Mode = "redis"
	ModeNATS  Mode = "nats"
)

type Options struct {
	Mode  Mode
	Redis RedisOptions
	NATS  NATSOptions
}

// New creates the driver selected by o.Mode. It never waits for the broker to become reachable.
func New(ctx context.Context, o Options) (Instance, error) {
	switch o.Mode {
	case ModeRedis, "":
		return NewRedis(ctx, o.Redis)
	case ModeNATS:
		return NewNATS(ctx, o.NATS)
	default:
		return nil, fmt.Errorf("unknown broker mode %q", o.Mode)
	}
}
