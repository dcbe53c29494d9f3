package query

import (
	"context"
	"time"

	"github.com/seventv/common/errors"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/internal/svc/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	DefaultLogLimit = 100
	MaxLogLimit     = 1000
)

type ActivityLogFilter struct {
	EventType model.ActivityEventType
	UserID    string
	Severity  model.Severity
	Limit     int
}

func (f ActivityLogFilter) toBSON() bson.M {
	m := bson.M{}

	if f.EventType != "" {
		m["eventType"] = f.EventType
	}

	if f.UserID != "" {
		m["userId"] = f.UserID
	}

	if f.Severity != "" {
		m["severity"] = f.Severity
	}

	return m
}

// ActivityLogs lists activity logs newest first
func (q *Query) ActivityLogs(ctx context.Context, f ActivityLogFilter) *QueryResult[model.ActivityLog] {
	return find[model.ActivityLog](ctx, q.mongo.Collection(mongo.CollectionNameActivityLogs), f.toBSON(),
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: -1}}).
			SetLimit(int64(ClampLimit(f.Limit, DefaultLogLimit, MaxLogLimit))),
	)
}

type ActivityStat struct {
	EventType model.ActivityEventType `bson:"_id" json:"eventType"`
	Count     int64                   `bson:"count" json:"count"`
}

// ActivityStats counts logs per event type since the given time
func (q *Query) ActivityStats(ctx context.Context, since time.Time) ([]ActivityStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"timestamp": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{"_id": "$eventType", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cur, err := q.mongo.Collection(mongo.CollectionNameActivityLogs).Aggregate(ctx, pipeline)
	if err != nil {
		zap.S().Errorw("mongo, failed to aggregate activity stats", "error", err)

		return nil, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	result := []ActivityStat{}
	if err := cur.All(ctx, &result); err != nil {
		return nil, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return result, nil
}
