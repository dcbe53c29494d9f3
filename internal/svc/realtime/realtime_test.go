package realtime

import (
	"fmt"
	"testing"

	"github.com/socialsync/api/internal/svc/presence"
	"github.com/socialsync/api/internal/testutil"
)

func setup() (*presence.Registry, *Hub, *Emitter) {
	reg := presence.New()
	hub := NewHub()

	return reg, hub, NewEmitter(reg, hub, nil)
}

func TestEmitToUserReachesOnlyTarget(t *testing.T) {
	reg, hub, em := setup()

	a := NewRecorder("ha")
	b := NewRecorder("hb")
	hub.Attach(a)
	hub.Attach(b)
	reg.Register("1000001", "ha")
	reg.Register("1000002", "hb")

	em.EmitToUser("1000001", "new-message", map[string]any{"messageId": "m1"})

	testutil.Assert(t, 1, len(a.Frames()), "target received one frame")
	testutil.Assert(t, "new-message", a.Frames()[0].Event, "event name")
	testutil.Assert(t, 0, len(b.Frames()), "other user received nothing")
}

func TestEmitToUserAfterReconnectUsesNewHandle(t *testing.T) {
	reg, hub, em := setup()

	old := NewRecorder("h1")
	cur := NewRecorder("h2")
	hub.Attach(old)
	hub.Attach(cur)

	reg.Register("u", "h1")
	reg.Register("u", "h2")

	em.EmitToUser("u", "post-liked", nil)

	testutil.Assert(t, 0, len(old.Frames()), "superseded connection skipped")
	testutil.Assert(t, 1, len(cur.Frames()), "latest connection received")
}

func TestEmitToOfflineUserIsSilent(t *testing.T) {
	reg, hub, em := setup()

	a := NewRecorder("ha")
	hub.Attach(a)
	reg.Register("u1", "ha")

	em.EmitToUser("nobody", "user-followed", map[string]any{"followedBy": "u1"})

	// nothing is queued for later either
	reg.Register("nobody", "ha2")
	hub.Attach(NewRecorder("ha2"))

	c, _ := hub.Get("ha2")
	testutil.Assert(t, 0, len(c.(*Recorder).Frames()), "no replay on connect")
	testutil.Assert(t, 0, len(a.Frames()), "no fallback delivery")
}

func TestEmitToUserDetachedHandle(t *testing.T) {
	reg, _, em := setup()

	reg.Register("u", "gone")

	// must not panic when the registry still holds a handle the hub no longer has
	em.EmitToUser("u", "new-post", nil)
}

func TestEmitToAllSnapshot(t *testing.T) {
	_, hub, em := setup()

	conns := make([]*Recorder, 5)
	for i := range conns {
		conns[i] = NewRecorder(presence.Handle(fmt.Sprintf("h%d", i)))
		hub.Attach(conns[i])
	}

	em.EmitToAll("user-status", map[string]any{"status": "online"})

	late := NewRecorder("late")
	hub.Attach(late)

	for i, c := range conns {
		testutil.Assert(t, 1, len(c.Frames()), fmt.Sprintf("connection %d received broadcast", i))
	}

	testutil.Assert(t, 0, len(late.Frames()), "late connection excluded")
}

func TestEmitToAllIncludesAnonymous(t *testing.T) {
	reg, hub, em := setup()

	identified := NewRecorder("h1")
	anonymous := NewRecorder("h2")
	hub.Attach(identified)
	hub.Attach(anonymous)
	reg.Register("u", "h1")

	em.EmitToAll("new-post-notification", nil)

	testutil.Assert(t, 1, len(anonymous.Frames()), "anonymous connection receives broadcasts")
	testutil.Assert(t, 1, len(identified.Frames()), "identified connection receives broadcasts")
}

func TestEmitOrderPreserved(t *testing.T) {
	reg, hub, em := setup()

	a := NewRecorder("ha")
	hub.Attach(a)
	reg.Register("u", "ha")

	em.EmitToUser("u", "e1", nil)
	em.EmitToAll("e2", nil)
	em.EmitToUser("u", "e3", nil)

	events := a.Events()
	testutil.Assert(t, 3, len(events), "three frames")
	testutil.Assert(t, "e1", events[0], "first")
	testutil.Assert(t, "e2", events[1], "second")
	testutil.Assert(t, "e3", events[2], "third")
}

func TestClosedConnectionDoesNotStopBroadcast(t *testing.T) {
	_, hub, em := setup()

	closed := NewRecorder("h1")
	closed.Close()
	open := NewRecorder("h2")

	hub.Attach(closed)
	hub.Attach(open)

	em.EmitToAll("relayed-post-event", nil)

	testutil.Assert(t, 1, len(open.Frames()), "open connection still receives")
}
