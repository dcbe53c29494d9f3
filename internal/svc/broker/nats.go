package broker

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type NATSOptions struct {
	URL  string
	Name string
}

type natsInst struct {
	nc *nats.Conn
}

func NewNATS(ctx context.Context, o NATSOptions) (Instance, error) {
	nc, err := nats.Connect(o.URL,
		nats.Name(o.Name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			zap.S().Warnw("nats broker disconnected",
				"error", err,
			)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			zap.S().Infow("nats broker reconnected",
				"url", nc.ConnectedUrl(),
			)
		}),
	)
	if err != nil {
		return nil, err
	}

	return &natsInst{nc: nc}, nil
}

func (i *natsInst) Connected() bool {
	return i.nc.IsConnected()
}

func (i *natsInst) Publish(ctx context.Context, channel string, data []byte) error {
	if !i.nc.IsConnected() {
		return ErrNotConnected
	}

	return i.nc.Publish(channel, data)
}

func (i *natsInst) Subscribe(ctx context.Context, channels ...string) (<-chan Message, error) {
	in := make(chan *nats.Msg, 256)
	subs := make([]*nats.Subscription, 0, len(channels))

	unsubscribe := func() error {
		var err error
		for _, s := range subs {
			err = multierr.Append(err, s.Unsubscribe())
		}

		return err
	}

	for _, ch := range channels {
		s, err := i.nc.ChanSubscribe(ch, in)
		if err != nil {
			return nil, multierr.Append(err, unsubscribe())
		}

		subs = append(subs, s)
	}

	out := make(chan Message, 64)

	go func() {
		defer close(out)
		defer func() {
			if err := unsubscribe(); err != nil && i.nc.IsConnected() {
				zap.S().Warnw("failed to unsubscribe from nats",
					"error", err,
				)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-in:
				select {
				case out <- Message{Channel: msg.Subject, Data: msg.Data}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (i *natsInst) Close() error {
	err := i.nc.Drain()
	if err == nats.ErrConnectionClosed {
		err = nil
	}

	i.nc.Close()

	return err
}
