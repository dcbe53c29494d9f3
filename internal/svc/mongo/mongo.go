package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

var ErrNoDocuments = mongo.ErrNoDocuments

type (
	Pipeline     = mongo.Pipeline
	WriteModel   = mongo.WriteModel
	IndexModel   = mongo.IndexModel
	Collection   = mongo.Collection
	SingleResult = mongo.SingleResult
)

type CollectionName string

const (
	CollectionNameUsers         CollectionName = "users"
	CollectionNamePosts         CollectionName = "posts"
	CollectionNameMessages      CollectionName = "messages"
	CollectionNameNotifications CollectionName = "notifications"
	CollectionNameActivityLogs  CollectionName = "activity_logs"
)

// activity logs expire after thirty days
const activityLogTTL = int32(30 * 24 * 60 * 60)

type Instance interface {
	Collection(name CollectionName) *mongo.Collection
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Options struct {
	URI     string
	DB      string
	Direct  bool
	Timeout time.Duration
}

type mongoInst struct {
	client *mongo.Client
	db     *mongo.Database
}

func Setup(ctx context.Context, opt Options) (Instance, error) {
	if opt.Timeout == 0 {
		opt.Timeout = 10 * time.Second
	}

	clientOptions := options.Client().
		ApplyURI(opt.URI).
		SetDirect(opt.Direct).
		SetServerSelectionTimeout(opt.Timeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	lctx, cancel := context.WithTimeout(ctx, opt.Timeout)
	defer cancel()

	if err := client.Ping(lctx, readpref.Primary()); err != nil {
		return nil, err
	}

	inst := &mongoInst{
		client: client,
		db:     client.Database(opt.DB),
	}

	if err := inst.ensureIndexes(lctx); err != nil {
		zap.S().Warnw("mongo, failed to create indexes",
			"error", err,
		)
	}

	zap.S().Infow("mongo, ok",
		"db", opt.DB,
	)

	return inst, nil
}

func (i *mongoInst) Collection(name CollectionName) *mongo.Collection {
	return i.db.Collection(string(name))
}

func (i *mongoInst) Ping(ctx context.Context) error {
	return i.client.Ping(ctx, readpref.Primary())
}

func (i *mongoInst) Close(ctx context.Context) error {
	return i.client.Disconnect(ctx)
}

func (i *mongoInst) ensureIndexes(ctx context.Context) error {
	indexes := map[CollectionName][]mongo.IndexModel{
		CollectionNameUsers: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionNamePosts: {
			{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		CollectionNameMessages: {
			{Keys: bson.D{{Key: "senderId", Value: 1}, {Key: "receiverId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "receiverId", Value: 1}, {Key: "read", Value: 1}}},
		},
		CollectionNameNotifications: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "read", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		CollectionNameActivityLogs: {
			{Keys: bson.D{{Key: "eventType", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "timestamp", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(activityLogTTL)},
		},
	}

	for name, models := range indexes {
		if _, err := i.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}

	return nil
}
