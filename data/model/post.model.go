package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeText  MediaType = "text"
)

func (m MediaType) Valid() bool {
	switch m {
	case MediaTypeImage, MediaTypeVideo, MediaTypeText:
		return true
	}

	return false
}

type Post struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Caption       string             `bson:"caption" json:"caption"`
	MediaURL      *string            `bson:"mediaUrl" json:"mediaUrl"`
	MediaType     MediaType          `bson:"mediaType" json:"mediaType"`
	OwnerID       string             `bson:"ownerId" json:"ownerId"`
	OwnerUsername string             `bson:"ownerUsername" json:"ownerUsername"`
	Likes         int                `bson:"likes" json:"likes"`
	LikedBy       []string           `bson:"likedBy" json:"likedBy"`
	Comments      []Comment          `bson:"comments" json:"comments"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Text      string             `bson:"text" json:"text"`
	Author    string             `bson:"author" json:"author"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

func (p Post) LikedByUser(userID string) bool {
	for _, id := range p.LikedBy {
		if id == userID {
			return true
		}
	}

	return false
}
