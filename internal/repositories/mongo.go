package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meetfood/backend/internal/db"
	"github.com/meetfood/backend/internal/models"
)

// MongoUserRepository provides MongoDB-backed persistence for user accounts.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository constructs a user repository backed by MongoDB.
func NewMongoUserRepository(database *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: database.Collection(db.UsersCollection)}
}

// FindByID fetches a user by their document id.
func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindBySubject fetches the user registered for the identity-provider subject.
func (r *MongoUserRepository) FindBySubject(ctx context.Context, subject string) (models.User, error) {
	return r.findOne(ctx, bson.M{"userId": subject})
}

// FindByUserName fetches a user by their unique user name.
func (r *MongoUserRepository) FindByUserName(ctx context.Context, userName string) (models.User, error) {
	return r.findOne(ctx, bson.M{"userName": userName})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

// Insert persists a new user document and returns it with its assigned id.
func (r *MongoUserRepository) Insert(ctx context.Context, user models.User) (models.User, error) {
	res, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrConflict
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return user, nil
}

// Update replaces the stored document with the provided one. The write is
// last-writer-wins; there is no version check.
func (r *MongoUserRepository) Update(ctx context.Context, user models.User) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the user document.
func (r *MongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoVideoPostRepository provides MongoDB-backed persistence for video posts.
type MongoVideoPostRepository struct {
	coll *mongo.Collection
}

// NewMongoVideoPostRepository constructs a video post repository backed by MongoDB.
func NewMongoVideoPostRepository(database *mongo.Database) *MongoVideoPostRepository {
	return &MongoVideoPostRepository{coll: database.Collection(db.VideoPostsCollection)}
}

// FindByID fetches a video post by its document id.
func (r *MongoVideoPostRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.VideoPost, error) {
	var post models.VideoPost
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.VideoPost{}, ErrNotFound
		}
		return models.VideoPost{}, fmt.Errorf("select video post: %w", err)
	}
	return post, nil
}

// Insert persists a new video post and returns it with its assigned id.
func (r *MongoVideoPostRepository) Insert(ctx context.Context, post models.VideoPost) (models.VideoPost, error) {
	res, err := r.coll.InsertOne(ctx, post)
	if err != nil {
		return models.VideoPost{}, fmt.Errorf("insert video post: %w", err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		post.ID = id
	}
	return post, nil
}

// Update replaces the stored document with the provided one, last-writer-wins.
func (r *MongoVideoPostRepository) Update(ctx context.Context, post models.VideoPost) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": post.ID}, post)
	if err != nil {
		return fmt.Errorf("update video post: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the video post document.
func (r *MongoVideoPostRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete video post: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRecent returns the newest posts in reverse chronological order.
func (r *MongoVideoPostRepository) ListRecent(ctx context.Context, limit int) ([]models.VideoPost, error) {
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdTime", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("query video posts: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []models.VideoPost
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("iterate video posts: %w", err)
	}
	return posts, nil
}

// EnsureIndexes creates the unique indexes the write paths rely on:
// one account per subject, one holder per user name.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	users := database.Collection(db.UsersCollection)
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_subject"),
		},
		{
			Keys:    bson.D{{Key: "userName", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_user_name"),
		},
	})
	if err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}

	posts := database.Collection(db.VideoPostsCollection)
	_, err = posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdTime", Value: -1}},
			Options: options.Index().SetName("recent_posts"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("posts_by_owner"),
		},
	})
	if err != nil {
		return fmt.Errorf("ensure video post indexes: %w", err)
	}

	return nil
}

var _ UserRepository = (*MongoUserRepository)(nil)
var _ VideoPostRepository = (*MongoVideoPostRepository)(nil)
