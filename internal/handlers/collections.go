package handlers

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meetfood/backend/internal/logging"
	"github.com/meetfood/backend/internal/models"
	"github.com/meetfood/backend/internal/repositories"
)

// CollectionHandler maintains a user's saved-video collection and the
// symmetric collection counter on the referenced post. The two writes are
// sequential, not transactional: a crash between them leaves the counter
// and the collection out of step, an accepted limitation.
type CollectionHandler struct {
	Users    UserStore
	Posts    VideoPostStore
	Hydrator *repositories.Hydrator
}

// Handle dispatches POST (add) and DELETE (remove) for
// /api/v1/user/videos/collection/{videoPostId}.
func (h CollectionHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.add(w, r)
	case http.MethodDelete:
		h.remove(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h CollectionHandler) add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, post, ok := h.load(w, r)
	if !ok {
		return
	}

	for _, entry := range user.Collections {
		if entry.VideoPost == post.ID {
			// Repeating an add is an error, not a silent no-op.
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "already collected this video"})
			return
		}
	}

	user.Collections = append(user.Collections, models.CollectionEntry{VideoPost: post.ID})
	post.CountCollections++

	if err := h.Posts.Update(ctx, post); err != nil {
		logger.Error("update post collection counter failed", "error", err, "postId", post.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to add video into collection"})
		return
	}
	if err := h.Users.Update(ctx, user); err != nil {
		logger.Error("update user collection failed", "error", err, "userId", user.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to add video into collection"})
		return
	}

	h.respond(w, r, user, post, "Video added to collection successfully.")
}

func (h CollectionHandler) remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, post, ok := h.load(w, r)
	if !ok {
		return
	}

	idx := -1
	for i, entry := range user.Collections {
		if entry.VideoPost == post.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "this video is not in the collection"})
		return
	}

	user.Collections = append(user.Collections[:idx], user.Collections[idx+1:]...)
	if post.CountCollections > 0 {
		post.CountCollections--
	}

	if err := h.Posts.Update(ctx, post); err != nil {
		logger.Error("update post collection counter failed", "error", err, "postId", post.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to remove video from collection"})
		return
	}
	if err := h.Users.Update(ctx, user); err != nil {
		logger.Error("update user collection failed", "error", err, "userId", user.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to remove video from collection"})
		return
	}

	h.respond(w, r, user, post, "Video removed from collection successfully.")
}

// load resolves the caller's account and the referenced post, writing the
// error response itself on failure.
func (h CollectionHandler) load(w http.ResponseWriter, r *http.Request) (models.User, models.VideoPost, bool) {
	ctx := r.Context()

	user, ok := requireUser(w, r, h.Users)
	if !ok {
		return models.User{}, models.VideoPost{}, false
	}

	postID, err := primitive.ObjectIDFromHex(r.PathValue("videoPostId"))
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid video post id"})
		return models.User{}, models.VideoPost{}, false
	}

	post, err := h.Posts.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "no video post"})
			return models.User{}, models.VideoPost{}, false
		}
		logging.FromContext(ctx).Error("video post lookup failed", "error", err, "postId", postID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to load video post"})
		return models.User{}, models.VideoPost{}, false
	}

	return user, post, true
}

func (h CollectionHandler) respond(w http.ResponseWriter, r *http.Request, user models.User, post models.VideoPost, message string) {
	ctx := r.Context()

	refs := make([]primitive.ObjectID, 0, len(user.Collections))
	for _, entry := range user.Collections {
		refs = append(refs, entry.VideoPost)
	}

	collections, err := h.Hydrator.HydratePostRefs(ctx, refs)
	if err != nil {
		logging.FromContext(ctx).Error("hydrate collection failed", "error", err, "userId", user.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load collection"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message":     message,
		"collections": collections,
		"post":        post,
	})
}
