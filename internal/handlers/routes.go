package handlers

import (
	"net/http"

	"github.com/meetfood/backend/internal/auth"
	"github.com/meetfood/backend/internal/repositories"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Posts         VideoPostStore
	Storage       ObjectStorage
	Cleaner       BlobCleaner
	Identity      IdentityAdmin
	Hydrator      *repositories.Hydrator
	Gate          *auth.Gate
	UploadLimiter RateLimiter
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Every
// route except the public feed and the health check sits behind the
// required auth gate.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{
		Users:    deps.Users,
		Posts:    deps.Posts,
		Storage:  deps.Storage,
		Cleaner:  deps.Cleaner,
		Identity: deps.Identity,
		Hydrator: deps.Hydrator,
		Limiter:  deps.UploadLimiter,
	}
	collections := CollectionHandler{
		Users:    deps.Users,
		Posts:    deps.Posts,
		Hydrator: deps.Hydrator,
	}
	videos := VideoPostHandler{
		Users:    deps.Users,
		Posts:    deps.Posts,
		Storage:  deps.Storage,
		Cleaner:  deps.Cleaner,
		Hydrator: deps.Hydrator,
		Limiter:  deps.UploadLimiter,
	}

	gate := deps.Gate

	mux.HandleFunc("/healthz", health.Handle)

	mux.Handle("/api/v1/user/create", gate.Require(http.HandlerFunc(users.Create)))
	mux.Handle("/api/v1/user/profile/me", gate.Require(http.HandlerFunc(users.ProfileMe)))
	mux.Handle("/api/v1/user/profile/photo", gate.Require(http.HandlerFunc(users.UpdatePhoto)))
	mux.Handle("/api/v1/user/delete", gate.Require(http.HandlerFunc(users.Delete)))
	mux.Handle("/api/v1/user/videos/collection/{videoPostId}", gate.Require(http.HandlerFunc(collections.Handle)))

	mux.Handle("/api/v1/video-post/videos", gate.Optional(http.HandlerFunc(videos.Feed)))
	mux.Handle("/api/v1/video-post/comment/{videoPostId}", gate.Require(http.HandlerFunc(videos.Comment)))
	mux.Handle("/api/v1/video-post/comment/{videoPostId}/{commentId}", gate.Require(http.HandlerFunc(videos.DeleteComment)))
	mux.Handle("/api/v1/video-post/like/{videoPostId}", gate.Require(http.HandlerFunc(videos.Like)))
	mux.Handle("/api/v1/video-post/unlike/{videoPostId}", gate.Require(http.HandlerFunc(videos.Unlike)))
	mux.Handle("/api/v1/video-post/coverImage", gate.Require(http.HandlerFunc(videos.UploadCoverImage)))
	mux.Handle("/api/v1/video-post/upload", gate.Require(http.HandlerFunc(videos.UploadVideo)))
	mux.Handle("/api/v1/video-post/new", gate.Require(http.HandlerFunc(videos.Create)))
	mux.Handle("/api/v1/video-post/customer/{videoPostId}", gate.Require(http.HandlerFunc(videos.Delete)))
	mux.Handle("/api/v1/video-post/{videoPostId}", gate.Require(http.HandlerFunc(videos.Get)))
}
