package eventbridge

import (
	"context"
	"time"

	"github.com/seventv/common/utils"
	"github.com/socialsync/api/data/events"
	"github.com/socialsync/api/internal/global"
	"github.com/socialsync/api/internal/svc/broker"
	"github.com/socialsync/api/internal/svc/prometheus"
	"go.uber.org/zap"
)

const maxRetryInterval = time.Minute

// Broadcaster sends an event to every connection on this instance
type Broadcaster interface {
	EmitToAll(event string, payload any)
}

type ActivitySink interface {
	Push(ev events.ChannelEvent)
}

type Options struct {
	Broker   broker.Instance
	Codec    events.Codec
	Origin   string
	Channels []events.Channel
	Emitter  Broadcaster
	Activity ActivitySink
	Metrics  prometheus.Instance
	// first wait before resubscribing, doubled on each failure
	RetryInterval time.Duration
}

// Bridge relays events published by any API instance to the websocket clients of this one
type Bridge struct {
	broker   broker.Instance
	codec    events.Codec
	origin   string
	channels []string
	emitter  Broadcaster
	activity ActivitySink
	metrics  prometheus.Instance
	retry    time.Duration
}

func NewBridge(opt Options) *Bridge {
	if opt.Codec == nil {
		opt.Codec, _ = events.NewCodec("json")
	}

	if opt.Metrics == nil {
		opt.Metrics = prometheus.New(prometheus.Options{})
	}

	if opt.RetryInterval <= 0 {
		opt.RetryInterval = 5 * time.Second
	}

	return &Bridge{
		broker:   opt.Broker,
		codec:    opt.Codec,
		origin:   opt.Origin,
		channels: utils.Map(opt.Channels, func(c events.Channel) string { return c.String() }),
		emitter:  opt.Emitter,
		activity: opt.Activity,
		metrics:  opt.Metrics,
		retry:    opt.RetryInterval,
	}
}

// Run keeps a subscription to the relay channels alive until ctx is done.
// Failed or dropped subscriptions are retried in the background with a growing delay.
func (b *Bridge) Run(ctx context.Context) {
	wait := b.retry

	for {
		msgs, err := b.broker.Subscribe(ctx, b.channels...)
		if err != nil {
			zap.S().Named("eventbridge").Warnw("subscribe failed, retrying",
				"channels", b.channels,
				"retry_in", wait,
				"error", err,
			)
		} else {
			zap.S().Named("eventbridge").Infow("subscribed", "channels", b.channels)

			wait = b.retry

			for msg := range msgs {
				b.Handle(msg)
			}

			if ctx.Err() != nil {
				return
			}

			zap.S().Named("eventbridge").Warnw("subscription lost, retrying",
				"retry_in", wait,
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		wait = utils.Ternary(wait*2 > maxRetryInterval, maxRetryInterval, wait*2)
	}
}

// Handle decodes one broker message and re-broadcasts it. Malformed input is logged and dropped.
func (b *Bridge) Handle(msg broker.Message) {
	ch := events.Channel(msg.Channel)

	env, err := b.codec.Decode(ch, msg.Data)
	if err != nil {
		b.metrics.RelayMalformed(msg.Channel)

		zap.S().Named("eventbridge").Warnw("malformed relay message",
			"channel", msg.Channel,
			"size", len(msg.Data),
			"error", err,
		)

		return
	}

	// this instance already delivered its own events locally
	if b.origin != "" && env.Origin == b.origin {
		return
	}

	b.metrics.Relayed(msg.Channel)

	if b.emitter != nil {
		b.emitter.EmitToAll(ch.RelayEvent(), env.Event)
	}

	if ch == events.ChannelActivityLogs && b.activity != nil {
		b.activity.Push(env.Event)
	}
}

// New starts the bridge for the process. The returned channel closes once it has stopped.
func New(gctx global.Context) <-chan struct{} {
	done := make(chan struct{})

	cfg := gctx.Config().Broker

	b := NewBridge(Options{
		Broker:        gctx.Inst().Broker,
		Codec:         gctx.Inst().Codec,
		Origin:        gctx.Inst().Events.Origin(),
		Channels:      utils.Map(cfg.Channels, func(s string) events.Channel { return events.Channel(s) }),
		Emitter:       gctx.Inst().Emitter,
		Activity:      gctx.Inst().Activity,
		Metrics:       gctx.Inst().Prometheus,
		RetryInterval: cfg.RetryInterval,
	})

	go func() {
		defer close(done)

		b.Run(gctx)
	}()

	return done
}
