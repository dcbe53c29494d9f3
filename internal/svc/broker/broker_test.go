package broker

import (
	"context"
	"testing"
	"time"

	"github.com/socialsync/api/internal/testutil"
)

func recv(t *testing.T, ch <-chan Message) (Message, bool) {
	t.Helper()

	select {
	case msg, ok := <-ch:
		return msg, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broker message")
	}

	return Message{}, false
}

func TestMockFanOutAcrossInstances(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	net := NewMockNetwork()
	a := net.Instance()
	b := net.Instance()

	sub, err := b.Subscribe(ctx, "post-events")
	testutil.IsNil(t, err, "subscribe")

	testutil.IsNil(t, a.Publish(ctx, "post-events", []byte(`{"type":"created"}`)), "publish")
	testutil.IsNil(t, a.Publish(ctx, "other", []byte(`{}`)), "publish on unrelated channel")

	msg, ok := recv(t, sub)
	testutil.Assert(t, true, ok, "channel open")
	testutil.Assert(t, "post-events", msg.Channel, "channel")
	testutil.Assert(t, `{"type":"created"}`, string(msg.Data), "payload")
	testutil.Assert(t, int64(2), a.Published(), "publish count")
}

func TestMockDisconnected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	net := NewMockNetwork()
	a := net.Instance()

	sub, err := a.Subscribe(ctx, "user-events")
	testutil.IsNil(t, err, "subscribe")

	a.SetConnected(false)
	testutil.Assert(t, false, a.Connected(), "disconnected")

	_, ok := recv(t, sub)
	testutil.Assert(t, false, ok, "subscription closed on disconnect")

	testutil.AssertErr(t, ErrNotConnected, a.Publish(ctx, "user-events", nil), "publish while down")

	_, err = a.Subscribe(ctx, "user-events")
	testutil.AssertErr(t, ErrNotConnected, err, "subscribe while down")

	a.SetConnected(true)
	_, err = a.Subscribe(ctx, "user-events")
	testutil.IsNil(t, err, "subscribe after reconnect")
}

func TestMockSubscriptionEndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	net := NewMockNetwork()
	sub, err := net.Instance().Subscribe(ctx, "post-events")
	testutil.IsNil(t, err, "subscribe")

	cancel()

	_, ok := recv(t, sub)
	testutil.Assert(t, false, ok, "closed after cancel")
}

func TestUnknownMode(t *testing.T) {
	_, err := New(context.Background(), Options{Mode: "carrier-pigeon"})
	testutil.IsNotNil(t, err, "unknown mode rejected")
}
