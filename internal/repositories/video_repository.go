package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meetfood/backend/internal/models"
)

// VideoPostRepository defines the data access contract for video posts.
type VideoPostRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (models.VideoPost, error)
	Insert(ctx context.Context, post models.VideoPost) (models.VideoPost, error)
	Update(ctx context.Context, post models.VideoPost) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListRecent(ctx context.Context, limit int) ([]models.VideoPost, error)
}
