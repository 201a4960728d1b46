// Package dbmongo stores uploaded media bytes in MongoDB GridFS.
package dbmongo

import (
	"context"
	"fmt"
	"time"

	"clipshare/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultBucket  = "media_files"
	connectTimeout = 10 * time.Second
)

// MongoClient owns the connection and the bucket uploads go to.
type MongoClient struct {
	Client   *mongo.Client
	Database *mongo.Database
	GridFS   *gridfs.Bucket
}

func NewMongoConnection(ctx context.Context, c *config.Config) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(c.GetMongoURI()).
		SetAppName("clipshare").
		SetServerSelectionTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	name := c.MongoDB.Bucket
	if name == "" {
		name = defaultBucket
	}
	db := client.Database(c.MongoDB.Database)
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(name))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("open bucket %q: %w", name, err)
	}

	_, err = db.Collection(name+".files").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "metadata.uploaded_by", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("index %s.files: %w", name, err)
	}

	return &MongoClient{Client: client, Database: db, GridFS: bucket}, nil
}

func (mc *MongoClient) Close(ctx context.Context) error {
	return mc.Client.Disconnect(ctx)
}
