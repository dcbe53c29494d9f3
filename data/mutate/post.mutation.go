package mutate

import (
	"context"

	"github.com/seventv/common/errors"
	"github.com/socialsync/api/data/events"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/internal/svc/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func (m *Mutate) CreatePost(ctx context.Context, opt CreatePostOptions) (model.Post, error) {
	var p model.Post

	if err := opt.Normalize(); err != nil {
		return p, err
	}

	owner, err := m.query.UserByUserID(ctx, opt.OwnerID)
	if err != nil {
		return p, err
	}

	if opt.OwnerUsername == "" {
		opt.OwnerUsername = owner.Username
	}

	now := m.now()
	p = model.Post{
		ID:            primitive.NewObjectID(),
		Caption:       opt.Caption,
		MediaURL:      opt.MediaURL,
		MediaType:     opt.MediaType,
		OwnerID:       owner.UserID,
		OwnerUsername: opt.OwnerUsername,
		LikedBy:       []string{},
		Comments:      []model.Comment{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := m.mongo.Collection(mongo.CollectionNamePosts).InsertOne(ctx, p); err != nil {
		zap.S().Errorw("mongo, failed to create post", "owner_id", p.OwnerID, "error", err)

		return p, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	m.CreateNotifications(ctx, owner.Followers, NotificationOptions{
		Kind:         model.NotificationKindPost,
		FromUserID:   p.OwnerID,
		FromUsername: p.OwnerUsername,
		PostID:       p.ID.Hex(),
		Text:         p.Caption,
	})

	for _, followerID := range owner.Followers {
		m.emit(followerID, events.EventNewPost, map[string]any{
			"postId":            p.ID.Hex(),
			"caption":           p.Caption,
			"createdBy":         p.OwnerID,
			"createdByUsername": p.OwnerUsername,
			"mediaType":         string(p.MediaType),
		})
	}

	m.publish(events.ChannelPostEvents, events.EventTypeCreated, map[string]any{
		"postId":            p.ID.Hex(),
		"caption":           p.Caption,
		"createdBy":         p.OwnerID,
		"createdByUsername": p.OwnerUsername,
		"mediaType":         string(p.MediaType),
	})

	m.LogActivity(ctx, model.ActivityLog{
		EventType:    model.ActivityPostCreated,
		UserID:       p.OwnerID,
		Username:     p.OwnerUsername,
		ResourceID:   p.ID.Hex(),
		ResourceType: model.ResourcePost,
		Action:       "created_post",
		Details:      map[string]any{"caption": p.Caption, "mediaType": string(p.MediaType)},
	})

	return p, nil
}

type LikeResult struct {
	Post  model.Post
	Liked bool
}

// ToggleLike likes the post for userID, or removes the like if it is already there
func (m *Mutate) ToggleLike(ctx context.Context, postID primitive.ObjectID, userID string) (LikeResult, error) {
	r := LikeResult{}

	if userID == "" {
		return r, errors.ErrMissingRequiredField().SetDetail("userId is required")
	}

	p, err := m.query.PostByID(ctx, postID)
	if err != nil {
		return r, err
	}

	r.Liked = !p.LikedByUser(userID)

	var filter, update bson.M
	if r.Liked {
		filter = bson.M{"_id": postID, "likedBy": bson.M{"$ne": userID}}
		update = bson.M{"$addToSet": bson.M{"likedBy": userID}, "$inc": bson.M{"likes": 1}}
	} else {
		filter = bson.M{"_id": postID, "likedBy": userID}
		update = bson.M{"$pull": bson.M{"likedBy": userID}, "$inc": bson.M{"likes": -1}}
	}

	update["$set"] = bson.M{"updatedAt": m.now()}

	if err := m.mongo.Collection(mongo.CollectionNamePosts).FindOneAndUpdate(ctx, filter, update, returnAfter()).Decode(&r.Post); err != nil {
		if err != mongo.ErrNoDocuments {
			return r, errors.ErrInternalServerError().SetDetail(err.Error())
		}

		// a concurrent toggle got there first, report the stored state
		if r.Post, err = m.query.PostByID(ctx, postID); err != nil {
			return r, err
		}

		r.Liked = r.Post.LikedByUser(userID)

		return r, nil
	}

	likerName := userID
	if liker, err := m.query.UserByUserID(ctx, userID); err == nil {
		likerName = liker.Username
	}

	if r.Liked && r.Post.OwnerID != userID {
		m.CreateNotifications(ctx, []string{r.Post.OwnerID}, NotificationOptions{
			Kind:         model.NotificationKindLike,
			FromUserID:   userID,
			FromUsername: likerName,
			PostID:       postID.Hex(),
		})

		m.emit(r.Post.OwnerID, events.EventPostLiked, map[string]any{
			"postId":          postID.Hex(),
			"likedBy":         userID,
			"likedByUsername": likerName,
			"totalLikes":      r.Post.Likes,
			"liked":           r.Liked,
		})
	}

	t, act := events.EventTypeLiked, model.ActivityPostLiked
	if !r.Liked {
		t, act = events.EventTypeUnliked, model.ActivityPostUnliked
	}

	m.publish(events.ChannelPostEvents, t, map[string]any{
		"postId":          postID.Hex(),
		"likedBy":         userID,
		"likedByUsername": likerName,
		"totalLikes":      r.Post.Likes,
	})

	m.LogActivity(ctx, model.ActivityLog{
		EventType:    act,
		UserID:       userID,
		Username:     likerName,
		ResourceID:   postID.Hex(),
		ResourceType: model.ResourcePost,
		Action:       string(t),
		Details:      map[string]any{"totalLikes": r.Post.Likes},
	})

	return r, nil
}

type CommentResult struct {
	Post    model.Post
	Comment model.Comment
}

func (m *Mutate) AddComment(ctx context.Context, postID primitive.ObjectID, text, author string) (CommentResult, error) {
	r := CommentResult{}

	text, err := validateComment(text)
	if err != nil {
		return r, err
	}

	if author == "" {
		author = "anonymous"
	}

	r.Comment = model.Comment{
		ID:        primitive.NewObjectID(),
		Text:      text,
		Author:    author,
		CreatedAt: m.now(),
	}

	if err := m.mongo.Collection(mongo.CollectionNamePosts).FindOneAndUpdate(ctx,
		bson.M{"_id": postID},
		bson.M{"$push": bson.M{"comments": r.Comment}, "$set": bson.M{"updatedAt": r.Comment.CreatedAt}},
		returnAfter(),
	).Decode(&r.Post); err != nil {
		if err == mongo.ErrNoDocuments {
			return r, errors.ErrNoItems().SetDetail("Post not found")
		}

		return r, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	total := len(r.Post.Comments)

	if r.Post.OwnerID != author {
		m.CreateNotifications(ctx, []string{r.Post.OwnerID}, NotificationOptions{
			Kind:         model.NotificationKindComment,
			FromUserID:   author,
			FromUsername: author,
			PostID:       postID.Hex(),
			Text:         text,
		})

		m.emit(r.Post.OwnerID, events.EventCommentAdded, map[string]any{
			"postId":        postID.Hex(),
			"commentedBy":   author,
			"commentText":   text,
			"totalComments": total,
		})
	}

	m.publish(events.ChannelPostEvents, events.EventTypeCommented, map[string]any{
		"postId":        postID.Hex(),
		"commentedBy":   author,
		"commentText":   text,
		"totalComments": total,
	})

	m.LogActivity(ctx, model.ActivityLog{
		EventType:    model.ActivityCommentAdded,
		Username:     author,
		ResourceID:   postID.Hex(),
		ResourceType: model.ResourceComment,
		Action:       "added_comment",
		Details:      map[string]any{"commentText": text, "totalComments": total},
	})

	return r, nil
}

// DeletePost removes a post, only its owner may do so
func (m *Mutate) DeletePost(ctx context.Context, postID primitive.ObjectID, userID string) error {
	if userID == "" {
		return errors.ErrMissingRequiredField().SetDetail("userId is required")
	}

	p, err := m.query.PostByID(ctx, postID)
	if err != nil {
		return err
	}

	if p.OwnerID != userID {
		return errors.ErrInsufficientPrivilege().SetDetail("You can only delete your own posts")
	}

	if _, err := m.mongo.Collection(mongo.CollectionNamePosts).DeleteOne(ctx, bson.M{"_id": postID}); err != nil {
		return errors.ErrInternalServerError().SetDetail(err.Error())
	}

	m.publish(events.ChannelPostEvents, events.EventTypeDeleted, map[string]any{
		"postId":    postID.Hex(),
		"deletedBy": userID,
	})

	m.LogActivity(ctx, model.ActivityLog{
		EventType:    model.ActivityPostDeleted,
		UserID:       userID,
		Username:     p.OwnerUsername,
		ResourceID:   postID.Hex(),
		ResourceType: model.ResourcePost,
		Action:       "deleted_post",
	})

	return nil
}
