package websocket

import (
	"time"

	"github.com/socialsync/api/data/events"
)

// clientEvent describes how an event sent by a client is re-broadcast and published
type clientEvent struct {
	broadcast string
	channel   events.Channel
	kind      events.EventType
	fields    []string
}

var clientEvents = map[string]clientEvent{
	events.EventPostLiked: {
		broadcast: events.EventPostLikedNotification,
		channel:   events.ChannelPostEvents,
		kind:      events.EventTypeLiked,
		fields:    []string{"postId", "likedBy", "likedByUsername", "totalLikes"},
	},
	events.EventCommentAdded: {
		broadcast: events.EventCommentAddedNotification,
		channel:   events.ChannelPostEvents,
		kind:      events.EventTypeCommented,
		fields:    []string{"postId", "commentedBy", "commentedByUsername", "commentText", "totalComments"},
	},
	events.EventPostCreated: {
		broadcast: events.EventNewPostNotification,
		channel:   events.ChannelPostEvents,
		kind:      events.EventTypeCreated,
		fields:    []string{"postId", "caption", "createdBy", "createdByUsername", "mediaType"},
	},
	events.EventUserFollowed: {
		broadcast: events.EventFollowNotification,
		channel:   events.ChannelUserEvents,
		kind:      events.EventTypeFollowed,
		fields:    []string{"followedBy", "followedByUsername", "followedUser"},
	},
}

// payload copies the known fields of the client data and stamps the server time
func (c clientEvent) payload(data map[string]any) map[string]any {
	out := make(map[string]any, len(c.fields)+1)

	for _, k := range c.fields {
		if v, ok := data[k]; ok {
			out[k] = v
		}
	}

	out["timestamp"] = events.Timestamp(time.Now())

	return out
}
