package xmongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
	mopts "go.mongodb.org/mongo-driver/v2/mongo/options"
)

//go:generate mockgen -source=collection.go -destination=mock_collection_test.go -package=xmongostore

// collection 是 Store 用到的集合操作，*mongo.Collection 直接实现，测试中注入 mock
type collection interface {
	FindOne(ctx context.Context, filter any, opts ...mopts.Lister[mopts.FindOneOptions]) *mongo.SingleResult
	Find(ctx context.Context, filter any, opts ...mopts.Lister[mopts.FindOptions]) (*mongo.Cursor, error)
	ReplaceOne(ctx context.Context, filter, replacement any, opts ...mopts.Lister[mopts.ReplaceOptions]) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...mopts.Lister[mopts.DeleteOneOptions]) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter any, opts ...mopts.Lister[mopts.DeleteManyOptions]) (*mongo.DeleteResult, error)
	FindOneAndDelete(ctx context.Context, filter any, opts ...mopts.Lister[mopts.FindOneAndDeleteOptions]) *mongo.SingleResult
	CountDocuments(ctx context.Context, filter any, opts ...mopts.Lister[mopts.CountOptions]) (int64, error)
	Name() string
}

var _ collection = (*mongo.Collection)(nil)
