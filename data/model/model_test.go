package model

import (
	"testing"
	"time"

	"github.com/socialsync/api/internal/testutil"
)

func TestUserToModel(t *testing.T) {
	u := User{
		UserID:    "1234567",
		Username:  "alice",
		Password:  "secret-hash",
		Followers: []string{"7654321"},
	}

	m := u.ToModel()

	testutil.Assert(t, 1, m.FollowersCount, "followers count")
	testutil.Assert(t, 0, m.FollowingCount, "following count")
	testutil.IsNotNil(t, m.Following, "following never nil")
	testutil.Assert(t, true, u.ToPartial().UserID == "1234567", "partial keeps id")
}

func TestIsFollowing(t *testing.T) {
	u := User{Following: []string{"1", "2"}}

	testutil.Assert(t, true, u.IsFollowing("2"), "follows 2")
	testutil.Assert(t, false, u.IsFollowing("3"), "does not follow 3")
}

func TestMediaType(t *testing.T) {
	testutil.Assert(t, true, MediaTypeVideo.Valid(), "video")
	testutil.Assert(t, false, MediaType("gif").Valid(), "gif")
}

func TestActivityToEvent(t *testing.T) {
	ev := ActivityLog{
		EventType: ActivityPostLiked,
		UserID:    "1234567",
		Severity:  SeverityInfo,
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}.ToEvent()

	testutil.Assert(t, "post_liked", ev["eventType"].(string), "event type")
	testutil.Assert(t, "2024-01-02T03:04:05Z", ev["timestamp"].(string), "timestamp")

	_, ok := ev["username"]
	testutil.Assert(t, false, ok, "empty fields omitted")
}
