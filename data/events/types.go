package events

import (
	"time"
)

// Channel is a named broker topic shared by all API instances
type Channel string

const (
	ChannelPostEvents   Channel = "post-events"
	ChannelUserEvents   Channel = "user-events"
	ChannelActivityLogs Channel = "activity-logs"
)

// RelayEvent is the client event name under which a message received on the channel is re-broadcast
func (c Channel) RelayEvent() string {
	switch c {
	case ChannelPostEvents:
		return EventRelayedPost
	case ChannelUserEvents:
		return EventRelayedUser
	case ChannelActivityLogs:
		return EventRelayedActivity
	default:
		return "relayed-" + string(c)
	}
}

func (c Channel) String() string {
	return string(c)
}

// Client-facing event names
const (
	// targeted
	EventNewPost      = "new-post"
	EventPostLiked    = "post-liked"
	EventCommentAdded = "comment-added"
	EventUserFollowed = "user-followed"
	EventNewMessage   = "new-message"

	// sent by clients
	EventPostCreated = "post-created"

	// presence
	EventUserOnline = "user-online"
	EventUserStatus = "user-status"

	// broadcast after a client-originated event
	EventNewPostNotification      = "new-post-notification"
	EventPostLikedNotification    = "post-liked-notification"
	EventCommentAddedNotification = "comment-added-notification"
	EventFollowNotification       = "follow-notification"

	// relayed from the broker
	EventRelayedPost     = "relayed-post-event"
	EventRelayedUser     = "relayed-user-event"
	EventRelayedActivity = "relayed-activity-event"
)

// EventType is the value of the "type" field of a ChannelEvent
type EventType string

const (
	EventTypeCreated   EventType = "created"
	EventTypeDeleted   EventType = "deleted"
	EventTypeLiked     EventType = "liked"
	EventTypeUnliked   EventType = "unliked"
	EventTypeCommented EventType = "commented"
	EventTypeFollowed  EventType = "followed"
	EventTypeUnfollow  EventType = "unfollowed"
	EventTypeActivity  EventType = "activity"
)

// ChannelEvent is the body of a broker message: a type tag plus flat, JSON-compatible fields
type ChannelEvent map[string]any

func NewChannelEvent(t EventType, fields map[string]any) ChannelEvent {
	ev := ChannelEvent{}
	for k, v := range fields {
		ev[k] = v
	}

	ev["type"] = string(t)
	if _, ok := ev["timestamp"]; !ok {
		ev["timestamp"] = Timestamp(time.Now())
	}

	return ev
}

func (e ChannelEvent) Type() EventType {
	s, _ := e["type"].(string)

	return EventType(s)
}

// Timestamp formats t the way every event payload carries it
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Envelope wraps a ChannelEvent on the wire so receivers know which instance produced it
type Envelope struct {
	Origin  string       `json:"origin" msgpack:"origin"`
	Channel Channel      `json:"channel" msgpack:"channel"`
	Event   ChannelEvent `json:"event" msgpack:"event"`
}
