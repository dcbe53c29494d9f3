package mutate

import (
	"context"

	"github.com/seventv/common/errors"
	"github.com/socialsync/api/data/events"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/internal/svc/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (m *Mutate) SendMessage(ctx context.Context, senderID, receiverID, text string) (model.Message, error) {
	var msg model.Message

	text, err := validateMessage(senderID, receiverID, text)
	if err != nil {
		return msg, err
	}

	sender, err := m.query.UserByUserID(ctx, senderID)
	if err != nil {
		return msg, err
	}

	if _, err := m.query.UserByUserID(ctx, receiverID); err != nil {
		return msg, err
	}

	msg = model.Message{
		ID:          primitive.NewObjectID(),
		SenderID:    senderID,
		ReceiverID:  receiverID,
		MessageText: text,
		CreatedAt:   m.now(),
	}

	if _, err := m.mongo.Collection(mongo.CollectionNameMessages).InsertOne(ctx, msg); err != nil {
		return msg, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	m.CreateNotifications(ctx, []string{receiverID}, NotificationOptions{
		Kind:         model.NotificationKindMessage,
		FromUserID:   senderID,
		FromUsername: sender.Username,
	})

	m.emit(receiverID, events.EventNewMessage, map[string]any{
		"messageId":      msg.ID.Hex(),
		"senderId":       senderID,
		"senderUsername": sender.Username,
		"messageText":    msg.MessageText,
		"createdAt":      events.Timestamp(msg.CreatedAt),
	})

	m.LogActivity(ctx, model.ActivityLog{
		EventType:    model.ActivityMessageSent,
		UserID:       senderID,
		Username:     sender.Username,
		ResourceID:   msg.ID.Hex(),
		ResourceType: model.ResourceMessage,
		Action:       "sent_message",
		Details:      map[string]any{"receiverId": receiverID},
	})

	return msg, nil
}

// MarkConversationRead marks everything otherID sent to userID as read
func (m *Mutate) MarkConversationRead(ctx context.Context, userID, otherID string) (int64, error) {
	res, err := m.mongo.Collection(mongo.CollectionNameMessages).UpdateMany(ctx,
		bson.M{"senderId": otherID, "receiverId": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return res.ModifiedCount, nil
}
