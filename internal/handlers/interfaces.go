package handlers

import (
	"context"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meetfood/backend/internal/models"
	"github.com/meetfood/backend/internal/storage"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindBySubject(ctx context.Context, subject string) (models.User, error)
	FindByUserName(ctx context.Context, userName string) (models.User, error)
	Insert(ctx context.Context, user models.User) (models.User, error)
	Update(ctx context.Context, user models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// VideoPostStore captures persistence for video post workflows.
type VideoPostStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (models.VideoPost, error)
	Insert(ctx context.Context, post models.VideoPost) (models.VideoPost, error)
	Update(ctx context.Context, post models.VideoPost) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListRecent(ctx context.Context, limit int) ([]models.VideoPost, error)
}

// ObjectStorage is the blob-store surface the handlers mutate through.
type ObjectStorage interface {
	Upload(ctx context.Context, category storage.Category, filename string, r io.Reader) (string, error)
	URL(category storage.Category, key string) string
}

// BlobCleaner schedules best-effort background blob deletions.
type BlobCleaner interface {
	Enqueue(ctx context.Context, category storage.Category, key string) error
}

// IdentityAdmin removes accounts from the external identity provider.
type IdentityAdmin interface {
	DeleteAccount(ctx context.Context, username string) error
}
