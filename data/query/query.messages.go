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
	DefaultNotificationLimit = 50
	MaxNotificationLimit     = 100
)

// Conversation returns messages exchanged between two users in both directions, oldest first
func (q *Query) Conversation(ctx context.Context, userID, otherID string) *QueryResult[model.Message] {
	filter := bson.M{"$or": bson.A{
		bson.M{"senderId": userID, "receiverId": otherID},
		bson.M{"senderId": otherID, "receiverId": userID},
	}}

	return find[model.Message](ctx, q.mongo.Collection(mongo.CollectionNameMessages), filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
}

type ConversationSummary struct {
	PartnerID       string    `bson:"_id" json:"partnerId"`
	PartnerUsername string    `bson:"-" json:"partnerUsername"`
	LastMessage     string    `bson:"lastMessage" json:"lastMessage"`
	LastMessageTime time.Time `bson:"lastMessageTime" json:"lastMessageTime"`
	UnreadCount     int64     `bson:"unreadCount" json:"unreadCount"`
}

// Conversations summarizes every conversation userID takes part in, most recent first.
// UnreadCount only counts messages the partner sent to userID.
func (q *Query) Conversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	partner := bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$senderId", userID}}, "$receiverId", "$senderId"}}
	unread := bson.M{"$cond": bson.A{
		bson.M{"$and": bson.A{
			bson.M{"$eq": bson.A{"$receiverId", userID}},
			bson.M{"$eq": bson.A{"$read", false}},
		}},
		1, 0,
	}}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"senderId": userID},
			bson.M{"receiverId": userID},
		}}}},
		{{Key: "$sort", Value: bson.M{"createdAt": -1}}},
		{{Key: "$group", Value: bson.M{
			"_id":             partner,
			"lastMessage":     bson.M{"$first": "$messageText"},
			"lastMessageTime": bson.M{"$first": "$createdAt"},
			"unreadCount":     bson.M{"$sum": unread},
		}}},
		{{Key: "$sort", Value: bson.M{"lastMessageTime": -1}}},
	}

	cur, err := q.mongo.Collection(mongo.CollectionNameMessages).Aggregate(ctx, pipeline)
	if err != nil {
		zap.S().Errorw("mongo, failed to aggregate conversations", "user_id", userID, "error", err)

		return nil, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	result := []ConversationSummary{}
	if err := cur.All(ctx, &result); err != nil {
		return nil, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	for i := range result {
		result[i].PartnerUsername = "Unknown"

		if u, err := q.UserByUserID(ctx, result[i].PartnerID); err == nil {
			result[i].PartnerUsername = u.Username
		}
	}

	return result, nil
}

func (q *Query) UnreadMessageCount(ctx context.Context, userID string) (int64, error) {
	n, err := q.mongo.Collection(mongo.CollectionNameMessages).CountDocuments(ctx, bson.M{"receiverId": userID, "read": false})
	if err != nil {
		return 0, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return n, nil
}

// Notifications lists a user's notifications newest first
func (q *Query) Notifications(ctx context.Context, userID string, limit int) *QueryResult[model.Notification] {
	return find[model.Notification](ctx, q.mongo.Collection(mongo.CollectionNameNotifications), bson.M{"userId": userID},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(int64(ClampLimit(limit, DefaultNotificationLimit, MaxNotificationLimit))),
	)
}

func (q *Query) UnreadNotificationCount(ctx context.Context, userID string) (int64, error) {
	n, err := q.mongo.Collection(mongo.CollectionNameNotifications).CountDocuments(ctx, bson.M{"userId": userID, "read": false})
	if err != nil {
		return 0, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return n, nil
}

// ClampLimit applies a default to non-positive values and caps at max
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}

	if limit > max {
		return max
	}

	return limit
}
