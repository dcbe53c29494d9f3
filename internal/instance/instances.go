package instance

import (
	"github.com/socialsync/api/data/events"
	"github.com/socialsync/api/data/mutate"
	"github.com/socialsync/api/data/query"
	"github.com/socialsync/api/internal/svc/activity"
	"github.com/socialsync/api/internal/svc/broker"
	"github.com/socialsync/api/internal/svc/mongo"
	"github.com/socialsync/api/internal/svc/presence"
	"github.com/socialsync/api/internal/svc/prometheus"
	"github.com/socialsync/api/internal/svc/realtime"
)

type Instances struct {
	Mongo      mongo.Instance
	Broker     broker.Instance
	Prometheus prometheus.Instance
	Events     events.Publisher
	Codec      events.Codec

	Presence *presence.Registry
	Hub      *realtime.Hub
	Emitter  *realtime.Emitter
	Activity *activity.Stream

	Query  *query.Query
	Mutate *mutate.Mutate
}
