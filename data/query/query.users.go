package query

import (
	"context"
	"regexp"
	"strings"

	"github.com/seventv/common/errors"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/internal/svc/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	searchLimit     = 20
	suggestionLimit = 5
)

// UserByUserID returns a user by their public 7-digit id, served from memory when possible
func (q *Query) UserByUserID(ctx context.Context, userID string) (model.User, error) {
	var u model.User

	k := q.key("user:" + userID)
	if q.getFromMemCache(k, &u) {
		return u, nil
	}

	mtx := q.mtx(k)
	mtx.Lock()
	defer mtx.Unlock()

	// another request may have populated it while we waited
	if q.getFromMemCache(k, &u) {
		return u, nil
	}

	if err := q.mongo.Collection(mongo.CollectionNameUsers).FindOne(ctx, bson.M{"userId": userID}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return u, errors.ErrUnknownUser()
		}

		zap.S().Errorw("mongo, failed to fetch user", "user_id", userID, "error", err)

		return u, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	q.setInMemCache(k, u)

	return u, nil
}

// UserByIdentifier finds a user by username, email or userId
func (q *Query) UserByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	var u model.User

	filter := bson.M{"$or": bson.A{
		bson.M{"username": identifier},
		bson.M{"email": strings.ToLower(identifier)},
		bson.M{"userId": identifier},
	}}

	if err := q.mongo.Collection(mongo.CollectionNameUsers).FindOne(ctx, filter).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return u, errors.ErrUnknownUser()
		}

		return u, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return u, nil
}

// UserExists reports whether the username or email is already taken
func (q *Query) UserExists(ctx context.Context, username, email string) (bool, error) {
	n, err := q.mongo.Collection(mongo.CollectionNameUsers).CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}})
	if err != nil {
		return false, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return n > 0, nil
}

func (q *Query) UserIDTaken(ctx context.Context, userID string) (bool, error) {
	n, err := q.mongo.Collection(mongo.CollectionNameUsers).CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		return false, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return n > 0, nil
}

// UserFieldTaken reports whether another user than exceptUserID already uses value for field
func (q *Query) UserFieldTaken(ctx context.Context, field, value, exceptUserID string) (bool, error) {
	n, err := q.mongo.Collection(mongo.CollectionNameUsers).CountDocuments(ctx, bson.M{
		field:    value,
		"userId": bson.M{"$ne": exceptUserID},
	})
	if err != nil {
		return false, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return n > 0, nil
}

// SearchUsers does a case-insensitive prefix match on username and full name
func (q *Query) SearchUsers(ctx context.Context, term string) *QueryResult[model.User] {
	pattern := "^" + regexp.QuoteMeta(term)

	filter := bson.M{"$or": bson.A{
		bson.M{"username": bson.M{"$regex": pattern, "$options": "i"}},
		bson.M{"fullName": bson.M{"$regex": pattern, "$options": "i"}},
	}}

	return find[model.User](ctx, q.mongo.Collection(mongo.CollectionNameUsers), filter,
		options.Find().SetLimit(searchLimit).SetProjection(bson.M{"password": 0}),
	)
}

type ProfileStats struct {
	Followers int   `json:"followers"`
	Following int   `json:"following"`
	Posts     int64 `json:"posts"`
}

func (q *Query) ProfileStats(ctx context.Context, userID string) (ProfileStats, error) {
	u, err := q.UserByUserID(ctx, userID)
	if err != nil {
		return ProfileStats{}, err
	}

	posts, err := q.mongo.Collection(mongo.CollectionNamePosts).CountDocuments(ctx, bson.M{"ownerId": userID})
	if err != nil {
		return ProfileStats{}, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return ProfileStats{
		Followers: len(u.Followers),
		Following: len(u.Following),
		Posts:     posts,
	}, nil
}

// Suggestions lists the newest users that userID does not follow yet, excluding userID itself.
// An unknown userID still gets suggestions.
func (q *Query) Suggestions(ctx context.Context, userID string) *QueryResult[model.User] {
	cond := bson.M{"$ne": userID}

	if u, err := q.UserByUserID(ctx, userID); err == nil && len(u.Following) > 0 {
		cond["$nin"] = u.Following
	}

	return find[model.User](ctx, q.mongo.Collection(mongo.CollectionNameUsers), bson.M{"userId": cond},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(suggestionLimit).
			SetProjection(bson.M{"username": 1, "fullName": 1, "userId": 1}),
	)
}
