package eventbridge

import (
	"context"
	"testing"
	"time"

	"github.com/socialsync/api/data/events"
	"github.com/socialsync/api/internal/svc/activity"
	"github.com/socialsync/api/internal/svc/broker"
	"github.com/socialsync/api/internal/svc/presence"
	"github.com/socialsync/api/internal/svc/realtime"
	"github.com/socialsync/api/internal/testutil"
)

var relayChannels = []events.Channel{
	events.ChannelPostEvents,
	events.ChannelUserEvents,
	events.ChannelActivityLogs,
}

type node struct {
	broker    *broker.MockInstance
	hub       *realtime.Hub
	publisher events.Publisher
	stream    *activity.Stream
	conn      *realtime.Recorder
}

func startNode(ctx context.Context, t *testing.T, net *broker.MockNetwork, origin string) *node {
	t.Helper()

	n := &node{
		broker: net.Instance(),
		hub:    realtime.NewHub(),
		stream: activity.NewStream(),
		conn:   realtime.NewRecorder(presence.Handle(origin + "-conn")),
	}

	n.hub.Attach(n.conn)

	codec, _ := events.NewCodec("json")
	n.publisher = events.NewPublisher(ctx, events.PublisherOptions{
		Broker: n.broker,
		Codec:  codec,
		Origin: origin,
	})

	b := NewBridge(Options{
		Broker:        n.broker,
		Codec:         codec,
		Origin:        origin,
		Channels:      relayChannels,
		Emitter:       realtime.NewEmitter(presence.New(), n.hub, nil),
		Activity:      n.stream,
		RetryInterval: 10 * time.Millisecond,
	})

	go b.Run(ctx)

	return n
}

func relayed(r *realtime.Recorder, event string) int {
	n := 0

	for _, e := range r.Events() {
		if e == event {
			n++
		}
	}

	return n
}

func TestRelayAcrossInstances(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	net := broker.NewMockNetwork()
	a := startNode(ctx, t, net, "node-a")
	b := startNode(ctx, t, net, "node-b")

	// give both bridges time to subscribe
	time.Sleep(50 * time.Millisecond)

	a.publisher.Publish(events.ChannelPostEvents, events.NewChannelEvent(events.EventTypeLiked, map[string]any{"postId": "p1"}))

	testutil.Eventually(t, time.Second, func() bool {
		return relayed(b.conn, events.EventRelayedPost) == 1
	}, "remote instance relays the event")

	testutil.Never(t, 100*time.Millisecond, func() bool {
		return relayed(a.conn, events.EventRelayedPost) > 0
	}, "origin instance skips its own event")

	f := b.conn.Frames()[0]
	ev := f.Data.(events.ChannelEvent)
	testutil.Assert(t, "p1", ev["postId"].(string), "payload preserved")
	testutil.Assert(t, events.EventTypeLiked, ev.Type(), "type preserved")
}

func TestActivityRelayFeedsStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	net := broker.NewMockNetwork()
	a := startNode(ctx, t, net, "node-a")
	b := startNode(ctx, t, net, "node-b")

	_, feed := b.stream.Subscribe()

	time.Sleep(50 * time.Millisecond)

	a.publisher.Publish(events.ChannelActivityLogs, events.NewChannelEvent(events.EventTypeActivity, map[string]any{"eventType": "post_created"}))

	select {
	case ev := <-feed:
		testutil.Assert(t, "post_created", ev["eventType"].(string), "activity forwarded to the live feed")
	case <-time.After(time.Second):
		t.Fatal("activity event never reached the live feed")
	}

	testutil.Eventually(t, time.Second, func() bool {
		return relayed(b.conn, events.EventRelayedActivity) == 1
	}, "activity relayed to sockets")
}

func TestMalformedMessagesAreDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	net := broker.NewMockNetwork()
	b := startNode(ctx, t, net, "node-b")

	time.Sleep(50 * time.Millisecond)

	for _, raw := range []string{"not json", "null", "[1,2]", `{"type":`} {
		net.Inject(events.ChannelPostEvents.String(), []byte(raw))
	}

	// a bare event from a publisher that does not wrap its messages
	net.Inject(events.ChannelUserEvents.String(), []byte(`{"type":"followed","followedBy":"1234567"}`))

	testutil.Eventually(t, time.Second, func() bool {
		return relayed(b.conn, events.EventRelayedUser) == 1
	}, "bridge keeps running after malformed input")

	testutil.Assert(t, 0, relayed(b.conn, events.EventRelayedPost), "malformed input not relayed")
}

func TestResubscribeAfterBrokerOutage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	net := broker.NewMockNetwork()
	b := startNode(ctx, t, net, "node-b")

	b.broker.SetConnected(false)
	time.Sleep(50 * time.Millisecond)

	net.Inject(events.ChannelPostEvents.String(), []byte(`{"type":"created"}`))
	testutil.Assert(t, 0, relayed(b.conn, events.EventRelayedPost), "nothing relayed while down")

	b.broker.SetConnected(true)

	testutil.Eventually(t, 2*time.Second, func() bool {
		net.Inject(events.ChannelPostEvents.String(), []byte(`{"type":"created"}`))

		return relayed(b.conn, events.EventRelayedPost) > 0
	}, "relay resumes once the broker is back")
}
