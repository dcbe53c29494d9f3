package mutate

import (
	"context"
	"math/rand"
	"strconv"

	"github.com/seventv/common/errors"
	"github.com/socialsync/api/data/events"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/internal/svc/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const userIDAttempts = 10

func generateUserID() string {
	return strconv.Itoa(1000000 + rand.Intn(9000000))
}

func returnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

func (m *Mutate) CreateUser(ctx context.Context, opt CreateUserOptions) (model.User, error) {
	var u model.User

	if err := opt.Normalize(); err != nil {
		return u, err
	}

	exists, err := m.query.UserExists(ctx, opt.Username, opt.Email)
	if err != nil {
		return u, err
	}

	if exists {
		return u, errors.ErrInvalidRequest().SetDetail("Username or email already exists")
	}

	userID := ""

	for i := 0; i < userIDAttempts; i++ {
		id := generateUserID()

		taken, err := m.query.UserIDTaken(ctx, id)
		if err != nil {
			return u, err
		}

		if !taken {
			userID = id
			break
		}
	}

	if userID == "" {
		return u, errors.ErrInternalServerError().SetDetail("Could not allocate a user id")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opt.Password), bcrypt.DefaultCost)
	if err != nil {
		return u, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	now := m.now()
	u = model.User{
		ID:        primitive.NewObjectID(),
		Username:  opt.Username,
		Email:     opt.Email,
		Password:  string(hash),
		UserID:    userID,
		FullName:  opt.FullName,
		Bio:       opt.Bio,
		Followers: []string{},
		Following: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := m.mongo.Collection(mongo.CollectionNameUsers).InsertOne(ctx, u); err != nil {
		zap.S().Errorw("mongo, failed to create user", "username", u.Username, "error", err)

		return u, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	m.LogActivity(ctx, model.ActivityLog{
		EventType:    model.ActivityUserSignup,
		UserID:       u.UserID,
		Username:     u.Username,
		ResourceID:   u.UserID,
		ResourceType: model.ResourceUser,
		Action:       "registered",
	})

	return u, nil
}

// Authenticate checks a password against the user matching identifier
func (m *Mutate) Authenticate(ctx context.Context, identifier, password string) (model.User, error) {
	if identifier == "" || password == "" {
		return model.User{}, errors.ErrMissingRequiredField().SetDetail("identifier and password are required")
	}

	u, err := m.query.UserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Compare(err, errors.ErrUnknownUser()) {
			return u, errors.ErrUnauthorized().SetDetail("Invalid credentials")
		}

		return u, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return model.User{}, errors.ErrUnauthorized().SetDetail("Invalid credentials")
	}

	m.LogActivity(ctx, model.ActivityLog{
		EventType:    model.ActivityUserLogin,
		UserID:       u.UserID,
		Username:     u.Username,
		ResourceType: model.ResourceUser,
		Action:       "logged_in",
	})

	return u, nil
}

// UpdateProfile rewrites the editable profile fields of a user.
// A new username or email must not belong to another account.
func (m *Mutate) UpdateProfile(ctx context.Context, opt UpdateProfileOptions) (model.User, error) {
	var u model.User

	if err := opt.Normalize(); err != nil {
		return u, err
	}

	cur, err := m.query.UserByUserID(ctx, opt.UserID)
	if err != nil {
		return u, err
	}

	if opt.Username != cur.Username {
		taken, err := m.query.UserFieldTaken(ctx, "username", opt.Username, cur.UserID)
		if err != nil {
			return u, err
		}

		if taken {
			return u, errors.ErrInvalidRequest().SetDetail("Username not available")
		}
	}

	if opt.Email != cur.Email {
		taken, err := m.query.UserFieldTaken(ctx, "email", opt.Email, cur.UserID)
		if err != nil {
			return u, err
		}

		if taken {
			return u, errors.ErrInvalidRequest().SetDetail("Email already in use")
		}
	}

	if err := m.mongo.Collection(mongo.CollectionNameUsers).FindOneAndUpdate(ctx,
		bson.M{"userId": cur.UserID},
		bson.M{"$set": bson.M{
			"username":  opt.Username,
			"email":     opt.Email,
			"fullName":  opt.FullName,
			"bio":       opt.Bio,
			"updatedAt": m.now(),
		}},
		returnAfter(),
	).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return u, errors.ErrUnknownUser()
		}

		zap.S().Errorw("mongo, failed to update profile", "user_id", cur.UserID, "error", err)

		return u, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	m.query.InvalidateUser(cur.UserID)

	m.LogActivity(ctx, model.ActivityLog{
		EventType:    model.ActivityProfileUpdated,
		UserID:       u.UserID,
		Username:     u.Username,
		ResourceID:   u.UserID,
		ResourceType: model.ResourceUser,
		Action:       "updated_profile",
	})

	return u, nil
}

type FollowResult struct {
	Following bool
	From      model.User
	To        model.User
}

// ToggleFollow follows toUserID, or unfollows when fromUserID already follows them
func (m *Mutate) ToggleFollow(ctx context.Context, fromUserID, toUserID string) (FollowResult, error) {
	r := FollowResult{}

	if fromUserID == "" || toUserID == "" {
		return r, errors.ErrMissingRequiredField().SetDetail("fromUserId and toUserId are required")
	}

	if fromUserID == toUserID {
		return r, errors.ErrInvalidRequest().SetDetail("You cannot follow yourself")
	}

	from, err := m.query.UserByUserID(ctx, fromUserID)
	if err != nil {
		return r, err
	}

	to, err := m.query.UserByUserID(ctx, toUserID)
	if err != nil {
		return r, err
	}

	r.Following = !from.IsFollowing(toUserID)

	op := "$addToSet"
	if !r.Following {
		op = "$pull"
	}

	now := m.now()
	users := m.mongo.Collection(mongo.CollectionNameUsers)

	if err := users.FindOneAndUpdate(ctx,
		bson.M{"userId": fromUserID},
		bson.M{op: bson.M{"following": toUserID}, "$set": bson.M{"updatedAt": now}},
		returnAfter(),
	).Decode(&r.From); err != nil {
		return r, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	if err := users.FindOneAndUpdate(ctx,
		bson.M{"userId": toUserID},
		bson.M{op: bson.M{"followers": fromUserID}, "$set": bson.M{"updatedAt": now}},
		returnAfter(),
	).Decode(&r.To); err != nil {
		return r, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	m.query.InvalidateUser(fromUserID)
	m.query.InvalidateUser(toUserID)

	if r.Following {
		m.CreateNotifications(ctx, []string{toUserID}, NotificationOptions{
			Kind:         model.NotificationKindFollow,
			FromUserID:   from.UserID,
			FromUsername: from.Username,
		})
	}

	m.emit(toUserID, events.EventUserFollowed, map[string]any{
		"followedBy":         from.UserID,
		"followedByUsername": from.Username,
		"followedUser":       to.UserID,
		"isFollowing":        r.Following,
	})

	m.publish(events.ChannelUserEvents, followEventType(r.Following), map[string]any{
		"followedBy":         from.UserID,
		"followedByUsername": from.Username,
		"followedUser":       to.UserID,
	})

	m.LogActivity(ctx, model.ActivityLog{
		EventType:    followActivity(r.Following),
		UserID:       from.UserID,
		Username:     from.Username,
		ResourceID:   to.UserID,
		ResourceType: model.ResourceUser,
		Action:       string(followEventType(r.Following)),
		Details:      map[string]any{"targetUsername": to.Username},
	})

	return r, nil
}

func followEventType(following bool) events.EventType {
	if following {
		return events.EventTypeFollowed
	}

	return events.EventTypeUnfollow
}

func followActivity(following bool) model.ActivityEventType {
	if following {
		return model.ActivityUserFollowed
	}

	return model.ActivityUserUnfollowed
}
