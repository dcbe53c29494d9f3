package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a stored account. UserID is the public 7-digit identity used everywhere else.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	UserID    string             `bson:"userId" json:"userId"`
	FullName  string             `bson:"fullName" json:"fullName"`
	Bio       string             `bson:"bio" json:"bio"`
	Followers []string           `bson:"followers" json:"followers"`
	Following []string           `bson:"following" json:"following"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type UserModel struct {
	ID             primitive.ObjectID `json:"_id"`
	UserID         string             `json:"userId"`
	Username       string             `json:"username"`
	Email          string             `json:"email,omitempty"`
	FullName       string             `json:"fullName"`
	Bio            string             `json:"bio"`
	Followers      []string           `json:"followers"`
	Following      []string           `json:"following"`
	FollowersCount int                `json:"followersCount"`
	FollowingCount int                `json:"followingCount"`
	CreatedAt      time.Time          `json:"createdAt"`
}

type UserPartialModel struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Bio      string `json:"bio,omitempty"`
}

func (u User) ToModel() UserModel {
	return UserModel{
		ID:             u.ID,
		UserID:         u.UserID,
		Username:       u.Username,
		Email:          u.Email,
		FullName:       u.FullName,
		Bio:            u.Bio,
		Followers:      nonNil(u.Followers),
		Following:      nonNil(u.Following),
		FollowersCount: len(u.Followers),
		FollowingCount: len(u.Following),
		CreatedAt:      u.CreatedAt,
	}
}

func (u User) ToPartial() UserPartialModel {
	return UserPartialModel{
		UserID:   u.UserID,
		Username: u.Username,
		FullName: u.FullName,
		Bio:      u.Bio,
	}
}

// IsFollowing reports whether u follows the given user id
func (u User) IsFollowing(userID string) bool {
	for _, id := range u.Following {
		if id == userID {
			return true
		}
	}

	return false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
