package events

import (
	"context"
	"time"

	"github.com/socialsync/api/internal/svc/broker"
	"github.com/socialsync/api/internal/svc/prometheus"
	"go.uber.org/zap"
)

// Publisher hands events to the broker without ever blocking or failing the caller
type Publisher interface {
	Publish(channel Channel, event ChannelEvent)
	// Origin is the id stamped on every envelope this publisher sends
	Origin() string
}

type PublisherOptions struct {
	Broker    broker.Instance
	Codec     Codec
	Origin    string
	QueueSize int
	// upper bound for a single broker publish call
	Timeout time.Duration
	Metrics prometheus.Instance
}

type publisherInst struct {
	broker  broker.Instance
	codec   Codec
	origin  string
	timeout time.Duration
	metrics prometheus.Instance
	queue   chan Envelope
}

func NewPublisher(ctx context.Context, opt PublisherOptions) Publisher {
	if opt.QueueSize <= 0 {
		opt.QueueSize = 1024
	}

	if opt.Timeout <= 0 {
		opt.Timeout = 2 * time.Second
	}

	if opt.Codec == nil {
		opt.Codec = jsonCodec{}
	}

	if opt.Metrics == nil {
		opt.Metrics = prometheus.New(prometheus.Options{})
	}

	inst := &publisherInst{
		broker:  opt.Broker,
		codec:   opt.Codec,
		origin:  opt.Origin,
		timeout: opt.Timeout,
		metrics: opt.Metrics,
		queue:   make(chan Envelope, opt.QueueSize),
	}

	go inst.run(ctx)

	return inst
}

func (inst *publisherInst) Origin() string {
	return inst.origin
}

func (inst *publisherInst) Publish(channel Channel, event ChannelEvent) {
	env := Envelope{
		Origin:  inst.origin,
		Channel: channel,
		Event:   event,
	}

	select {
	case inst.queue <- env:
	default:
		inst.drop(env, "queue_full", nil)
	}
}

func (inst *publisherInst) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-inst.queue:
			inst.flush(ctx, env)
		}
	}
}

func (inst *publisherInst) flush(ctx context.Context, env Envelope) {
	if inst.broker == nil || !inst.broker.Connected() {
		inst.drop(env, "disconnected", nil)
		return
	}

	b, err := inst.codec.Encode(env)
	if err != nil {
		inst.drop(env, "encode", err)
		return
	}

	lctx, cancel := context.WithTimeout(ctx, inst.timeout)
	defer cancel()

	if err := inst.broker.Publish(lctx, env.Channel.String(), b); err != nil {
		inst.drop(env, "publish", err)
		return
	}

	inst.metrics.Published(env.Channel.String())
}

func (inst *publisherInst) drop(env Envelope, reason string, err error) {
	inst.metrics.PublishDropped(env.Channel.String(), reason)

	zap.S().Named("events").Warnw("event not published",
		"channel", env.Channel,
		"type", env.Event.Type(),
		"reason", reason,
		"error", err,
	)
}
