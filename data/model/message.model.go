package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	SenderID    string             `bson:"senderId" json:"senderId"`
	ReceiverID  string             `bson:"receiverId" json:"receiverId"`
	MessageText string             `bson:"messageText" json:"messageText"`
	Read        bool               `bson:"read" json:"read"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

type NotificationKind string

const (
	NotificationKindFollow  NotificationKind = "follow"
	NotificationKindLike    NotificationKind = "like"
	NotificationKindComment NotificationKind = "comment"
	NotificationKindMessage NotificationKind = "message"
	NotificationKindPost    NotificationKind = "post"
)

type Notification struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID       string             `bson:"userId" json:"userId"`
	Type         NotificationKind   `bson:"type" json:"type"`
	Title        string             `bson:"title" json:"title"`
	Message      string             `bson:"message" json:"message"`
	FromUserID   string             `bson:"fromUserId,omitempty" json:"fromUserId,omitempty"`
	FromUsername string             `bson:"fromUsername,omitempty" json:"fromUsername,omitempty"`
	PostID       string             `bson:"postId,omitempty" json:"postId,omitempty"`
	Read         bool               `bson:"read" json:"read"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
