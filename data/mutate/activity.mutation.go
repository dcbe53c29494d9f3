package mutate

import (
	"context"

	"github.com/socialsync/api/data/events"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/internal/svc/mongo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// LogActivity stores the log, publishes it on the activity channel and feeds the local live stream.
// A failed insert is logged and the event is still published.
func (m *Mutate) LogActivity(ctx context.Context, log model.ActivityLog) {
	log.ID = primitive.NewObjectID()
	log.Timestamp = m.now()

	if log.Severity == "" {
		log.Severity = model.SeverityInfo
	}

	if m.mongo != nil {
		if _, err := m.mongo.Collection(mongo.CollectionNameActivityLogs).InsertOne(ctx, log); err != nil {
			zap.S().Errorw("mongo, failed to store activity log",
				"event_type", log.EventType,
				"error", err,
			)
		}
	}

	ev := events.NewChannelEvent(events.EventTypeActivity, log.ToEvent())

	if m.events != nil {
		m.events.Publish(events.ChannelActivityLogs, ev)
	}

	// relayed copies from this instance are skipped, so the local feed gets it here
	if m.activity != nil {
		m.activity.Push(ev)
	}
}
