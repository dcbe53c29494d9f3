package mutate

import (
	"time"

	"github.com/socialsync/api/data/events"
	"github.com/socialsync/api/data/query"
	"github.com/socialsync/api/internal/svc/mongo"
)

// Emitter delivers an event to one user's live connection, if any
type Emitter interface {
	EmitToUser(userID string, event string, payload any)
}

// ActivitySink receives activity events produced on this instance
type ActivitySink interface {
	Push(ev events.ChannelEvent)
}

type Mutate struct {
	mongo    mongo.Instance
	query    *query.Query
	events   events.Publisher
	emitter  Emitter
	activity ActivitySink
	now      func() time.Time
}

func New(opt InstanceOptions) *Mutate {
	return &Mutate{
		mongo:    opt.Mongo,
		query:    opt.Query,
		events:   opt.Events,
		emitter:  opt.Emitter,
		activity: opt.Activity,
		now:      time.Now,
	}
}

type InstanceOptions struct {
	Mongo    mongo.Instance
	Query    *query.Query
	Events   events.Publisher
	Emitter  Emitter
	Activity ActivitySink
}

func (m *Mutate) emit(userID string, event string, payload map[string]any) {
	if m.emitter == nil {
		return
	}

	payload["timestamp"] = events.Timestamp(m.now())
	m.emitter.EmitToUser(userID, event, payload)
}

func (m *Mutate) publish(ch events.Channel, t events.EventType, fields map[string]any) {
	if m.events == nil {
		return
	}

	m.events.Publish(ch, events.NewChannelEvent(t, fields))
}
