package mutate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/seventv/common/errors"
	"github.com/socialsync/api/data/events"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/data/query"
	"github.com/socialsync/api/internal/svc/mongo"
	"github.com/socialsync/api/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// mockStore serves collections from an mtest mock deployment
type mockStore struct {
	db *mongodriver.Database
}

func (s mockStore) Collection(name mongo.CollectionName) *mongodriver.Collection {
	return s.db.Collection(string(name))
}

func (s mockStore) Ping(ctx context.Context) error {
	return nil
}

func (s mockStore) Close(ctx context.Context) error {
	return nil
}

type emission struct {
	userID  string
	event   string
	payload map[string]any
}

type emitRecorder struct {
	mx   sync.Mutex
	sent []emission
}

func (e *emitRecorder) EmitToUser(userID string, event string, payload any) {
	e.mx.Lock()
	defer e.mx.Unlock()

	p, _ := payload.(map[string]any)
	e.sent = append(e.sent, emission{userID, event, p})
}

// recipients lists who received the event, in emit order
func (e *emitRecorder) recipients(event string) []string {
	e.mx.Lock()
	defer e.mx.Unlock()

	out := []string{}
	for _, s := range e.sent {
		if s.event == event {
			out = append(out, s.userID)
		}
	}

	return out
}

func (p *publishRecorder) typesOn(ch events.Channel) []events.EventType {
	p.mx.Lock()
	defer p.mx.Unlock()

	out := []events.EventType{}
	for i, c := range p.chans {
		if c == ch {
			out = append(out, p.events[i].Type())
		}
	}

	return out
}

type fanout struct {
	m     *Mutate
	emits *emitRecorder
	pub   *publishRecorder
}

func newFanout(mt *mtest.T) *fanout {
	store := mockStore{mt.DB}

	f := &fanout{
		emits: &emitRecorder{},
		pub:   &publishRecorder{},
	}

	f.m = New(InstanceOptions{
		Mongo:   store,
		Query:   query.New(store),
		Events:  f.pub,
		Emitter: f.emits,
	})
	f.m.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	return f
}

func toDoc(t *testing.T, v any) bson.D {
	t.Helper()

	b, err := bson.Marshal(v)
	testutil.IsNil(t, err, "marshal fixture")

	var d bson.D
	testutil.IsNil(t, bson.Unmarshal(b, &d), "unmarshal fixture")

	return d
}

// found is the reply to a find, one batch and no cursor left open
func found(mt *mtest.T, coll mongo.CollectionName, docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, mt.DB.Name()+"."+string(coll), mtest.FirstBatch, docs...)
}

// modified is the reply to a findAndModify returning doc
func modified(doc bson.D) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc})
}

func acked() bson.D {
	return mtest.CreateSuccessResponse()
}

const (
	ownerID = "1111111"
	otherID = "2222222"
)

func fixturePost(likedBy ...string) model.Post {
	return model.Post{
		ID:            primitive.NewObjectID(),
		Caption:       "sunset",
		MediaType:     model.MediaTypeText,
		OwnerID:       ownerID,
		OwnerUsername: "owner",
		Likes:         len(likedBy),
		LikedBy:       append([]string{}, likedBy...),
		Comments:      []model.Comment{},
	}
}

func fixtureUser(userID, username string, followers, following []string) model.User {
	return model.User{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Username:  username,
		Email:     username + "@example.com",
		Followers: followers,
		Following: following,
	}
}

func TestToggleLikeNotifiesOwner(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("liked by someone else", func(mt *mtest.T) {
		f := newFanout(mt)
		before := fixturePost()
		after := fixturePost(otherID)
		after.ID = before.ID

		mt.AddMockResponses(
			found(mt, mongo.CollectionNamePosts, toDoc(mt.T, before)),
			modified(toDoc(mt.T, after)),
			found(mt, mongo.CollectionNameUsers, toDoc(mt.T, fixtureUser(otherID, "liker", nil, nil))),
			acked(), // notification
			acked(), // activity log
		)

		res, err := f.m.ToggleLike(context.Background(), before.ID, otherID)
		testutil.IsNil(mt.T, err, "toggle like")
		testutil.Assert(mt.T, true, res.Liked, "liked")

		to := f.emits.recipients(events.EventPostLiked)
		testutil.Assert(mt.T, 1, len(to), "one post-liked")
		testutil.Assert(mt.T, ownerID, to[0], "owner is the recipient")
		testutil.Assert(mt.T, "liker", f.emits.sent[0].payload["likedByUsername"].(string), "liker name")
		testutil.Assert(mt.T, 1, f.emits.sent[0].payload["totalLikes"].(int), "total likes")

		types := f.pub.typesOn(events.ChannelPostEvents)
		testutil.Assert(mt.T, 1, len(types), "published once")
		testutil.Assert(mt.T, events.EventTypeLiked, types[0], "liked")
	})

	mt.Run("liked by the owner", func(mt *mtest.T) {
		f := newFanout(mt)
		before := fixturePost()
		after := fixturePost(ownerID)
		after.ID = before.ID

		mt.AddMockResponses(
			found(mt, mongo.CollectionNamePosts, toDoc(mt.T, before)),
			modified(toDoc(mt.T, after)),
			found(mt, mongo.CollectionNameUsers, toDoc(mt.T, fixtureUser(ownerID, "owner", nil, nil))),
			acked(),
		)

		res, err := f.m.ToggleLike(context.Background(), before.ID, ownerID)
		testutil.IsNil(mt.T, err, "toggle like")
		testutil.Assert(mt.T, true, res.Liked, "liked")
		testutil.Assert(mt.T, 0, len(f.emits.sent), "owner is not notified of their own like")

		types := f.pub.typesOn(events.ChannelPostEvents)
		testutil.Assert(mt.T, 1, len(types), "still published")
		testutil.Assert(mt.T, events.EventTypeLiked, types[0], "liked")
	})

	mt.Run("unliked", func(mt *mtest.T) {
		f := newFanout(mt)
		before := fixturePost(otherID)
		after := fixturePost()
		after.ID = before.ID

		mt.AddMockResponses(
			found(mt, mongo.CollectionNamePosts, toDoc(mt.T, before)),
			modified(toDoc(mt.T, after)),
			found(mt, mongo.CollectionNameUsers, toDoc(mt.T, fixtureUser(otherID, "liker", nil, nil))),
			acked(),
		)

		res, err := f.m.ToggleLike(context.Background(), before.ID, otherID)
		testutil.IsNil(mt.T, err, "toggle like")
		testutil.Assert(mt.T, false, res.Liked, "unliked")
		testutil.Assert(mt.T, 0, len(f.emits.sent), "removing a like notifies nobody")

		types := f.pub.typesOn(events.ChannelPostEvents)
		testutil.Assert(mt.T, 1, len(types), "published once")
		testutil.Assert(mt.T, events.EventTypeUnliked, types[0], "unliked")
	})
}

func TestAddCommentNotifiesOwner(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	withComment := func(author string) model.Post {
		p := fixturePost()
		p.Comments = []model.Comment{{ID: primitive.NewObjectID(), Text: "nice", Author: author}}

		return p
	}

	mt.Run("comment by the owner", func(mt *mtest.T) {
		f := newFanout(mt)
		p := withComment(ownerID)

		mt.AddMockResponses(modified(toDoc(mt.T, p)), acked())

		_, err := f.m.AddComment(context.Background(), p.ID, "nice", ownerID)
		testutil.IsNil(mt.T, err, "add comment")
		testutil.Assert(mt.T, 0, len(f.emits.sent), "owner is not notified of their own comment")

		types := f.pub.typesOn(events.ChannelPostEvents)
		testutil.Assert(mt.T, 1, len(types), "published once")
		testutil.Assert(mt.T, events.EventTypeCommented, types[0], "commented")
	})

	mt.Run("comment by someone else", func(mt *mtest.T) {
		f := newFanout(mt)
		p := withComment(otherID)

		mt.AddMockResponses(modified(toDoc(mt.T, p)), acked(), acked())

		_, err := f.m.AddComment(context.Background(), p.ID, "nice", otherID)
		testutil.IsNil(mt.T, err, "add comment")

		to := f.emits.recipients(events.EventCommentAdded)
		testutil.Assert(mt.T, 1, len(to), "one comment-added")
		testutil.Assert(mt.T, ownerID, to[0], "owner is the recipient")
		testutil.Assert(mt.T, 1, f.emits.sent[0].payload["totalComments"].(int), "total comments")

		types := f.pub.typesOn(events.ChannelPostEvents)
		testutil.Assert(mt.T, 1, len(types), "published once")
		testutil.Assert(mt.T, events.EventTypeCommented, types[0], "commented")
	})
}

func TestCreatePostNotifiesEveryFollower(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("followers", func(mt *mtest.T) {
		f := newFanout(mt)
		owner := fixtureUser(ownerID, "owner", []string{"3333333", "4444444"}, nil)

		mt.AddMockResponses(
			found(mt, mongo.CollectionNameUsers, toDoc(mt.T, owner)),
			acked(), // post
			acked(), // notifications
			acked(), // activity log
		)

		p, err := f.m.CreatePost(context.Background(), CreatePostOptions{Caption: "hello", OwnerID: ownerID})
		testutil.IsNil(mt.T, err, "create post")
		testutil.Assert(mt.T, "owner", p.OwnerUsername, "owner name filled in")

		to := f.emits.recipients(events.EventNewPost)
		testutil.Assert(mt.T, 2, len(to), "every follower")
		testutil.Assert(mt.T, "3333333", to[0], "first follower")
		testutil.Assert(mt.T, "4444444", to[1], "second follower")
		testutil.Assert(mt.T, p.ID.Hex(), f.emits.sent[0].payload["postId"].(string), "post id")
		testutil.Assert(mt.T, "2024-05-01T12:00:00Z", f.emits.sent[0].payload["timestamp"].(string), "stamped")

		types := f.pub.typesOn(events.ChannelPostEvents)
		testutil.Assert(mt.T, 1, len(types), "published once")
		testutil.Assert(mt.T, events.EventTypeCreated, types[0], "created")
	})

	mt.Run("no followers", func(mt *mtest.T) {
		f := newFanout(mt)

		mt.AddMockResponses(
			found(mt, mongo.CollectionNameUsers, toDoc(mt.T, fixtureUser(ownerID, "owner", []string{}, nil))),
			acked(),
			acked(),
		)

		_, err := f.m.CreatePost(context.Background(), CreatePostOptions{Caption: "hello", OwnerID: ownerID})
		testutil.IsNil(mt.T, err, "create post")
		testutil.Assert(mt.T, 0, len(f.emits.sent), "nobody to notify")
		testutil.Assert(mt.T, 1, len(f.pub.typesOn(events.ChannelPostEvents)), "still published")
	})
}

func TestToggleFollowNotifiesTarget(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("follow", func(mt *mtest.T) {
		f := newFanout(mt)

		mt.AddMockResponses(
			found(mt, mongo.CollectionNameUsers, toDoc(mt.T, fixtureUser(ownerID, "alice", nil, []string{}))),
			found(mt, mongo.CollectionNameUsers, toDoc(mt.T, fixtureUser(otherID, "bob", []string{}, nil))),
			modified(toDoc(mt.T, fixtureUser(ownerID, "alice", nil, []string{otherID}))),
			modified(toDoc(mt.T, fixtureUser(otherID, "bob", []string{ownerID}, nil))),
			acked(), // notification
			acked(), // activity log
		)

		res, err := f.m.ToggleFollow(context.Background(), ownerID, otherID)
		testutil.IsNil(mt.T, err, "toggle follow")
		testutil.Assert(mt.T, true, res.Following, "following")
		testutil.Assert(mt.T, 1, len(res.To.Followers), "target follower count")

		to := f.emits.recipients(events.EventUserFollowed)
		testutil.Assert(mt.T, 1, len(to), "one user-followed")
		testutil.Assert(mt.T, otherID, to[0], "target is the recipient")
		testutil.Assert(mt.T, "alice", f.emits.sent[0].payload["followedByUsername"].(string), "follower name")
		testutil.Assert(mt.T, true, f.emits.sent[0].payload["isFollowing"].(bool), "is following")

		types := f.pub.typesOn(events.ChannelUserEvents)
		testutil.Assert(mt.T, 1, len(types), "published once")
		testutil.Assert(mt.T, events.EventTypeFollowed, types[0], "followed")
	})

	mt.Run("self follow", func(mt *mtest.T) {
		f := newFanout(mt)

		_, err := f.m.ToggleFollow(context.Background(), ownerID, ownerID)
		testutil.Assert(mt.T, true, errors.Compare(err, errors.ErrInvalidRequest()), "rejected")
		testutil.Assert(mt.T, 0, len(f.emits.sent), "nothing emitted")
		testutil.Assert(mt.T, 0, len(f.pub.typesOn(events.ChannelUserEvents)), "nothing published")
	})
}

func TestUpdateProfile(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("updated", func(mt *mtest.T) {
		f := newFanout(mt)
		cur := fixtureUser(ownerID, "alice", nil, nil)

		next := cur
		next.FullName = "Alice Liddell"
		next.Bio = "down the hole"

		mt.AddMockResponses(
			found(mt, mongo.CollectionNameUsers, toDoc(mt.T, cur)),
			modified(toDoc(mt.T, next)),
			acked(), // activity log
		)

		u, err := f.m.UpdateProfile(context.Background(), UpdateProfileOptions{
			UserID:   ownerID,
			Username: "alice",
			Email:    "ALICE@example.com",
			FullName: " Alice Liddell ",
			Bio:      "down the hole",
		})
		testutil.IsNil(mt.T, err, "update profile")
		testutil.Assert(mt.T, "Alice Liddell", u.FullName, "full name")

		types := f.pub.typesOn(events.ChannelActivityLogs)
		testutil.Assert(mt.T, 1, len(types), "activity published")
		testutil.Assert(mt.T, string(model.ActivityProfileUpdated), f.pub.events[0]["eventType"].(string), "profile updated")
	})

	mt.Run("username taken", func(mt *mtest.T) {
		f := newFanout(mt)

		mt.AddMockResponses(
			found(mt, mongo.CollectionNameUsers, toDoc(mt.T, fixtureUser(ownerID, "alice", nil, nil))),
			found(mt, mongo.CollectionNameUsers, bson.D{{Key: "n", Value: int32(1)}}),
		)

		_, err := f.m.UpdateProfile(context.Background(), UpdateProfileOptions{
			UserID:   ownerID,
			Username: "bob",
			Email:    "alice@example.com",
		})
		testutil.Assert(mt.T, true, errors.Compare(err, errors.ErrInvalidRequest()), "rejected")
		testutil.Assert(mt.T, 0, len(f.pub.events), "nothing published")
	})
}
