package app

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/meetfood/backend/internal/auth"
	"github.com/meetfood/backend/internal/config"
	"github.com/meetfood/backend/internal/handlers"
	"github.com/meetfood/backend/internal/identity"
	"github.com/meetfood/backend/internal/middleware"
	"github.com/meetfood/backend/internal/repositories"
	"github.com/meetfood/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(
	database *mongo.Database,
	verifier identity.Verifier,
	admin identity.Admin,
	objectStore *storage.S3Store,
	cleaner *storage.Cleaner,
	cfg config.Config,
) handlers.Dependencies {
	users := repositories.NewMongoUserRepository(database)
	posts := repositories.NewMongoVideoPostRepository(database)
	hydrator := repositories.NewHydrator(users, posts)

	uploadLimiter := middleware.NewIPRateLimiter(cfg.UploadRateLimit, cfg.UploadRateWindow, cfg.UploadRateLimit, 10*time.Minute)

	return handlers.Dependencies{
		Users:         users,
		Posts:         posts,
		Storage:       objectStore,
		Cleaner:       cleaner,
		Identity:      admin,
		Hydrator:      hydrator,
		Gate:          auth.NewGate(verifier, users),
		UploadLimiter: uploadLimiter,
	}
}
