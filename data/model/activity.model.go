package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActivityEventType string

const (
	ActivityUserSignup     ActivityEventType = "user_signup"
	ActivityUserLogin      ActivityEventType = "user_login"
	ActivityProfileUpdated ActivityEventType = "profile_updated"
	ActivityPostCreated    ActivityEventType = "post_created"
	ActivityPostDeleted    ActivityEventType = "post_deleted"
	ActivityPostLiked      ActivityEventType = "post_liked"
	ActivityPostUnliked    ActivityEventType = "post_unliked"
	ActivityCommentAdded   ActivityEventType = "comment_added"
	ActivityUserFollowed   ActivityEventType = "user_followed"
	ActivityUserUnfollowed ActivityEventType = "user_unfollowed"
	ActivityMessageSent    ActivityEventType = "message_sent"
	ActivityAPIError       ActivityEventType = "api_error"
	ActivitySystemError    ActivityEventType = "system_error"
)

type ResourceType string

const (
	ResourcePost    ResourceType = "post"
	ResourceUser    ResourceType = "user"
	ResourceComment ResourceType = "comment"
	ResourceMessage ResourceType = "message"
	ResourceSystem  ResourceType = "system"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

type ActivityLog struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	EventType    ActivityEventType  `bson:"eventType" json:"eventType"`
	UserID       string             `bson:"userId,omitempty" json:"userId,omitempty"`
	Username     string             `bson:"username,omitempty" json:"username,omitempty"`
	ResourceID   string             `bson:"resourceId,omitempty" json:"resourceId,omitempty"`
	ResourceType ResourceType       `bson:"resourceType,omitempty" json:"resourceType,omitempty"`
	Action       string             `bson:"action,omitempty" json:"action,omitempty"`
	Details      map[string]any     `bson:"details,omitempty" json:"details,omitempty"`
	StatusCode   int                `bson:"statusCode,omitempty" json:"statusCode,omitempty"`
	ErrorMessage string             `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	IPAddress    string             `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserAgent    string             `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	DurationMS   int64              `bson:"duration,omitempty" json:"duration,omitempty"`
	Severity     Severity           `bson:"severity" json:"severity"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
}

// ToEvent flattens the log into the shape carried on the activity channel and the live feed
func (a ActivityLog) ToEvent() map[string]any {
	ev := map[string]any{
		"eventType": string(a.EventType),
		"severity":  string(a.Severity),
		"timestamp": a.Timestamp.UTC().Format(time.RFC3339Nano),
	}

	if !a.ID.IsZero() {
		ev["id"] = a.ID.Hex()
	}

	set := func(k, v string) {
		if v != "" {
			ev[k] = v
		}
	}

	set("userId", a.UserID)
	set("username", a.Username)
	set("resourceId", a.ResourceID)
	set("resourceType", string(a.ResourceType))
	set("action", a.Action)
	set("errorMessage", a.ErrorMessage)

	if a.StatusCode != 0 {
		ev["statusCode"] = a.StatusCode
	}

	if len(a.Details) > 0 {
		ev["details"] = a.Details
	}

	return ev
}
