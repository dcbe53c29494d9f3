package mutate

import (
	"context"

	"github.com/seventv/common/errors"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/internal/svc/mongo"
	"github.com/valyala/fasttemplate"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const notificationExcerptLength = 30

type notificationTemplate struct {
	title string
	body  *fasttemplate.Template
}

var notificationTemplates = map[model.NotificationKind]notificationTemplate{
	model.NotificationKindFollow:  {"New Follower", fasttemplate.New("{{from}} started following you", "{{", "}}")},
	model.NotificationKindLike:    {"New Like", fasttemplate.New("{{from}} liked your post", "{{", "}}")},
	model.NotificationKindComment: {"New Comment", fasttemplate.New(`{{from}} commented: "{{text}}"`, "{{", "}}")},
	model.NotificationKindMessage: {"New Message", fasttemplate.New("{{from}} sent you a message", "{{", "}}")},
	model.NotificationKindPost:    {"New Post", fasttemplate.New(`{{from}} posted: "{{text}}"`, "{{", "}}")},
}

// RenderNotification returns the title and message for a notification kind
func RenderNotification(kind model.NotificationKind, from, text string) (string, string) {
	tpl, ok := notificationTemplates[kind]
	if !ok {
		return "Notification", from
	}

	return tpl.title, tpl.body.ExecuteString(map[string]any{
		"from": from,
		"text": truncate(text, notificationExcerptLength),
	})
}

type NotificationOptions struct {
	Kind         model.NotificationKind
	FromUserID   string
	FromUsername string
	PostID       string
	Text         string
}

// CreateNotifications stores one notification of the same kind for every recipient.
// A failure here is logged and never fails the mutation that caused it.
func (m *Mutate) CreateNotifications(ctx context.Context, recipients []string, opt NotificationOptions) {
	if len(recipients) == 0 {
		return
	}

	title, message := RenderNotification(opt.Kind, opt.FromUsername, opt.Text)
	now := m.now()

	docs := make([]any, len(recipients))
	for i, userID := range recipients {
		docs[i] = model.Notification{
			ID:           primitive.NewObjectID(),
			UserID:       userID,
			Type:         opt.Kind,
			Title:        title,
			Message:      message,
			FromUserID:   opt.FromUserID,
			FromUsername: opt.FromUsername,
			PostID:       opt.PostID,
			CreatedAt:    now,
		}
	}

	if _, err := m.mongo.Collection(mongo.CollectionNameNotifications).InsertMany(ctx, docs); err != nil {
		zap.S().Errorw("mongo, failed to create notifications",
			"kind", opt.Kind,
			"recipients", len(recipients),
			"error", err,
		)
	}
}

func (m *Mutate) MarkNotificationRead(ctx context.Context, id primitive.ObjectID) (model.Notification, error) {
	var n model.Notification

	res := m.mongo.Collection(mongo.CollectionNameNotifications).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"read": true}},
		returnAfter(),
	)

	if err := res.Decode(&n); err != nil {
		if err == mongo.ErrNoDocuments {
			return n, errors.ErrNoItems().SetDetail("Notification not found")
		}

		return n, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return n, nil
}

func (m *Mutate) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, errors.ErrMissingRequiredField().SetDetail("userId is required")
	}

	res, err := m.mongo.Collection(mongo.CollectionNameNotifications).UpdateMany(ctx,
		bson.M{"userId": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return res.ModifiedCount, nil
}
