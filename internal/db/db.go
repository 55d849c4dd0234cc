package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// UsersCollection holds customer account documents.
	UsersCollection = "users"
	// VideoPostsCollection holds published video post documents.
	VideoPostsCollection = "videoposts"
)

// Connect establishes a MongoDB client and verifies the deployment is
// reachable before handing the database back to the caller.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client.Database(database), nil
}

// Disconnect tears down the client owning the provided database.
func Disconnect(ctx context.Context, database *mongo.Database) error {
	if database == nil {
		return nil
	}
	return database.Client().Disconnect(ctx)
}
