package query

import (
	"context"
	"testing"
	"time"

	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/internal/svc/mongo"
	"github.com/socialsync/api/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

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

func cursor(mt *mtest.T, coll mongo.CollectionName, docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, mt.DB.Name()+"."+string(coll), mtest.FirstBatch, docs...)
}

func TestSuggestionsSkipFollowedUsers(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("suggestions", func(mt *mtest.T) {
		q := New(mockStore{mt.DB})
		q.setInMemCache(q.key("user:1111111"), model.User{UserID: "1111111", Following: []string{"2222222"}})

		mt.AddMockResponses(cursor(mt, mongo.CollectionNameUsers,
			bson.D{{Key: "userId", Value: "3333333"}, {Key: "username", Value: "carol"}},
			bson.D{{Key: "userId", Value: "4444444"}, {Key: "username", Value: "dave"}},
		))

		users, err := q.Suggestions(context.Background(), "1111111").Items()
		testutil.IsNil(mt.T, err, "suggestions")
		testutil.Assert(mt.T, 2, len(users), "two suggestions")
		testutil.Assert(mt.T, "carol", users[0].Username, "newest first as returned")

		ev := mt.GetStartedEvent()
		testutil.Assert(mt.T, "find", ev.CommandName, "find")
		testutil.Assert(mt.T, "1111111", ev.Command.Lookup("filter", "userId", "$ne").StringValue(), "self excluded")

		nin, err := ev.Command.Lookup("filter", "userId", "$nin").Array().Values()
		testutil.IsNil(mt.T, err, "followed ids")
		testutil.Assert(mt.T, 1, len(nin), "one followed id")
		testutil.Assert(mt.T, "2222222", nin[0].StringValue(), "followed user excluded")
		testutil.Assert(mt.T, int64(suggestionLimit), ev.Command.Lookup("limit").Int64(), "limit")
	})
}

func TestConversationsResolvePartnerNames(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("conversations", func(mt *mtest.T) {
		q := New(mockStore{mt.DB})
		at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		mt.AddMockResponses(
			cursor(mt, mongo.CollectionNameMessages,
				bson.D{
					{Key: "_id", Value: "2222222"},
					{Key: "lastMessage", Value: "see you"},
					{Key: "lastMessageTime", Value: at},
					{Key: "unreadCount", Value: int64(2)},
				},
				bson.D{
					{Key: "_id", Value: "3333333"},
					{Key: "lastMessage", Value: "hi"},
					{Key: "lastMessageTime", Value: at.Add(-time.Hour)},
					{Key: "unreadCount", Value: int64(0)},
				},
			),
			cursor(mt, mongo.CollectionNameUsers, bson.D{{Key: "userId", Value: "2222222"}, {Key: "username", Value: "bob"}}),
			cursor(mt, mongo.CollectionNameUsers),
		)

		convs, err := q.Conversations(context.Background(), "1111111")
		testutil.IsNil(mt.T, err, "conversations")
		testutil.Assert(mt.T, 2, len(convs), "one per partner")

		testutil.Assert(mt.T, "2222222", convs[0].PartnerID, "partner")
		testutil.Assert(mt.T, "bob", convs[0].PartnerUsername, "partner name")
		testutil.Assert(mt.T, int64(2), convs[0].UnreadCount, "unread")
		testutil.Assert(mt.T, "see you", convs[0].LastMessage, "last message")
		testutil.Assert(mt.T, true, convs[0].LastMessageTime.Equal(at), "last message time")

		testutil.Assert(mt.T, "Unknown", convs[1].PartnerUsername, "deleted partner")

		ev := mt.GetStartedEvent()
		testutil.Assert(mt.T, "aggregate", ev.CommandName, "aggregate")
	})
}
