package query

import (
	"context"

	"github.com/seventv/common/errors"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/internal/svc/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Posts lists posts newest first, optionally only those of one owner
func (q *Query) Posts(ctx context.Context, ownerID string) *QueryResult[model.Post] {
	filter := bson.M{}
	if ownerID != "" {
		filter["ownerId"] = ownerID
	}

	return find[model.Post](ctx, q.mongo.Collection(mongo.CollectionNamePosts), filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
}

func (q *Query) PostByID(ctx context.Context, id primitive.ObjectID) (model.Post, error) {
	var p model.Post

	if err := q.mongo.Collection(mongo.CollectionNamePosts).FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return p, errors.ErrNoItems().SetDetail("Post not found")
		}

		return p, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return p, nil
}
