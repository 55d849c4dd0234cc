package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meetfood/backend/internal/models"
)

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindBySubject(ctx context.Context, subject string) (models.User, error)
	FindByUserName(ctx context.Context, userName string) (models.User, error)
	Insert(ctx context.Context, user models.User) (models.User, error)
	Update(ctx context.Context, user models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
