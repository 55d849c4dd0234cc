package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meetfood/backend/internal/logging"
	"github.com/meetfood/backend/internal/models"
	"github.com/meetfood/backend/internal/repositories"
	"github.com/meetfood/backend/internal/storage"
)

const feedLimit = 100

// VideoPostHandler provides endpoints for publishing, browsing and
// engaging with video posts.
type VideoPostHandler struct {
	Users    UserStore
	Posts    VideoPostStore
	Storage  ObjectStorage
	Cleaner  BlobCleaner
	Hydrator *repositories.Hydrator
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

// Feed handles GET /api/v1/video-post/videos. Anonymous callers are
// allowed; authentication is optional here.
func (h VideoPostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	posts, err := h.Posts.ListRecent(ctx, feedLimit)
	if err != nil {
		logger.Error("list video posts failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load videos"})
		return
	}

	views := make([]models.VideoPostView, 0, len(posts))
	cache := make(map[primitive.ObjectID]*models.UserSummary)
	for _, post := range posts {
		view, err := h.Hydrator.HydratePost(ctx, post, cache)
		if err != nil {
			logger.Error("hydrate video post failed", "error", err, "postId", post.ID.Hex())
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load videos"})
			return
		}
		views = append(views, view)
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": views})
}

// Get handles GET /api/v1/video-post/{videoPostId}.
func (h VideoPostHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}

	view, err := h.Hydrator.HydratePost(ctx, post, nil)
	if err != nil {
		logging.FromContext(ctx).Error("hydrate video post failed", "error", err, "postId", post.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load video post"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"post": view})
}

// Comment handles POST /api/v1/video-post/comment/{videoPostId}.
func (h VideoPostHandler) Comment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "comment text is required"})
		return
	}

	comment := models.Comment{
		ID:          primitive.NewObjectID(),
		UserID:      user.ID,
		Text:        req.Text,
		CreatedTime: h.now(),
	}
	post.Comments = append(post.Comments, comment)
	post.CountComment++

	if err := h.Posts.Update(ctx, post); err != nil {
		logger.Error("save comment failed", "error", err, "postId", post.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to add comment"})
		return
	}

	view, err := h.Hydrator.HydratePost(ctx, post, nil)
	if err != nil {
		logger.Error("hydrate video post failed", "error", err, "postId", post.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to load video post"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message": "Comment added successfully.",
		"post":    view,
	})
}

// DeleteComment handles DELETE /api/v1/video-post/comment/{videoPostId}/{commentId}.
// Only the comment's author may remove it.
func (h VideoPostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}

	commentID, err := primitive.ObjectIDFromHex(r.PathValue("commentId"))
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid comment id"})
		return
	}

	idx := -1
	for i, comment := range post.Comments {
		if comment.ID == commentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "comment not found"})
		return
	}
	if post.Comments[idx].UserID != user.ID {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "only the author can delete this comment"})
		return
	}

	post.Comments = append(post.Comments[:idx], post.Comments[idx+1:]...)
	if post.CountComment > 0 {
		post.CountComment--
	}

	if err := h.Posts.Update(ctx, post); err != nil {
		logger.Error("delete comment failed", "error", err, "postId", post.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete comment"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message": "Comment deleted successfully.",
		"post":    post,
	})
}

// Like handles PUT /api/v1/video-post/like/{videoPostId}.
func (h VideoPostHandler) Like(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}

	for _, like := range post.Likes {
		if like.UserID == user.ID {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "already liked this video"})
			return
		}
	}

	post.Likes = append(post.Likes, models.Like{UserID: user.ID})
	post.CountLike++
	user.LikedVideos = append(user.LikedVideos, models.LikedEntry{VideoPost: post.ID})

	if err := h.Posts.Update(ctx, post); err != nil {
		logger.Error("save like failed", "error", err, "postId", post.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to like video"})
		return
	}
	if err := h.Users.Update(ctx, user); err != nil {
		logger.Error("save liked video failed", "error", err, "userId", user.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to like video"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message": "Video liked successfully.",
		"post":    post,
	})
}

// Unlike handles PUT /api/v1/video-post/unlike/{videoPostId}.
func (h VideoPostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}

	idx := -1
	for i, like := range post.Likes {
		if like.UserID == user.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "this video has not been liked"})
		return
	}

	post.Likes = append(post.Likes[:idx], post.Likes[idx+1:]...)
	if post.CountLike > 0 {
		post.CountLike--
	}
	for i, entry := range user.LikedVideos {
		if entry.VideoPost == post.ID {
			user.LikedVideos = append(user.LikedVideos[:i], user.LikedVideos[i+1:]...)
			break
		}
	}

	if err := h.Posts.Update(ctx, post); err != nil {
		logger.Error("save unlike failed", "error", err, "postId", post.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to unlike video"})
		return
	}
	if err := h.Users.Update(ctx, user); err != nil {
		logger.Error("save liked video failed", "error", err, "userId", user.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to unlike video"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message": "Video unliked successfully.",
		"post":    post,
	})
}

// UploadVideo handles POST /api/v1/video-post/upload.
func (h VideoPostHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "video-content", storage.CategoryVideo, "videoUrl")
}

// UploadCoverImage handles POST /api/v1/video-post/coverImage.
func (h VideoPostHandler) UploadCoverImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "cover-image", storage.CategoryCoverImage, "coverImageUrl")
}

func (h VideoPostHandler) upload(w http.ResponseWriter, r *http.Request, field string, category storage.Category, urlField string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, string(category)+"-upload") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	if _, ok := requireUser(w, r, h.Users); !ok {
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "a " + field + " file is required"})
		return
	}
	defer file.Close()

	key, err := h.Storage.Upload(ctx, category, header.Filename, file)
	if err != nil {
		logger.Error("upload failed", "error", err, "category", string(category))
		respondJSON(ctx, w, http.StatusBadGateway, map[string]string{"error": "failed to upload file"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{
		urlField: h.Storage.URL(category, key),
	})
}

// Create handles POST /api/v1/video-post/new, publishing a post from
// previously uploaded media URLs and recording it on the owner's account.
func (h VideoPostHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}

	var req struct {
		PostTitle      string `json:"postTitle"`
		Description    string `json:"description"`
		RestaurantName string `json:"restaurantName"`
		VideoURL       string `json:"videoUrl"`
		CoverImageURL  string `json:"coverImageUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.PostTitle) == "" || strings.TrimSpace(req.VideoURL) == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "postTitle and videoUrl are required"})
		return
	}

	post := models.VideoPost{
		UserID:         user.ID,
		PostTitle:      req.PostTitle,
		Description:    req.Description,
		RestaurantName: req.RestaurantName,
		VideoURL:       req.VideoURL,
		CoverImageURL:  req.CoverImageURL,
		Comments:       []models.Comment{},
		Likes:          []models.Like{},
		CreatedTime:    h.now(),
	}

	created, err := h.Posts.Insert(ctx, post)
	if err != nil {
		logger.Error("create video post failed", "error", err, "userId", user.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create video post"})
		return
	}

	user.Videos = append(user.Videos, models.VideoEntry{VideoPost: created.ID})
	if err := h.Users.Update(ctx, user); err != nil {
		logger.Error("record uploaded video failed", "error", err, "userId", user.ID.Hex(), "postId", created.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create video post"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message": "Video post created successfully.",
		"post":    created,
	})
}

// Delete handles DELETE /api/v1/video-post/customer/{videoPostId}.
// Only the owner may delete a post; its blobs are removed best-effort in
// the background after the document is gone.
func (h VideoPostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := requireUser(w, r, h.Users)
	if !ok {
		return
	}
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}

	if post.UserID != user.ID {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "only the owner can delete this video post"})
		return
	}

	if err := h.Posts.Delete(ctx, post.ID); err != nil {
		logger.Error("delete video post failed", "error", err, "postId", post.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete video post"})
		return
	}

	if post.VideoURL != "" {
		if err := h.Cleaner.Enqueue(ctx, storage.CategoryVideo, storage.KeyFromURL(post.VideoURL)); err != nil {
			logger.Warn("could not schedule video cleanup", "error", err, "postId", post.ID.Hex())
		}
	}
	if post.CoverImageURL != "" {
		if err := h.Cleaner.Enqueue(ctx, storage.CategoryCoverImage, storage.KeyFromURL(post.CoverImageURL)); err != nil {
			logger.Warn("could not schedule cover cleanup", "error", err, "postId", post.ID.Hex())
		}
	}

	for i, entry := range user.Videos {
		if entry.VideoPost == post.ID {
			user.Videos = append(user.Videos[:i], user.Videos[i+1:]...)
			break
		}
	}
	if err := h.Users.Update(ctx, user); err != nil {
		// The post is already gone; surface the partial failure.
		logger.Error("remove uploaded video reference failed", "error", err, "userId", user.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "video post deleted but the account could not be updated"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{
		"message": "Video post deleted successfully.",
	})
}

// loadPost parses the path parameter and fetches the referenced post,
// writing the error response itself on failure.
func (h VideoPostHandler) loadPost(w http.ResponseWriter, r *http.Request) (models.VideoPost, bool) {
	ctx := r.Context()

	postID, err := primitive.ObjectIDFromHex(r.PathValue("videoPostId"))
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid video post id"})
		return models.VideoPost{}, false
	}

	post, err := h.Posts.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "no video post"})
			return models.VideoPost{}, false
		}
		logging.FromContext(ctx).Error("video post lookup failed", "error", err, "postId", postID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to load video post"})
		return models.VideoPost{}, false
	}

	return post, true
}

func (h VideoPostHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
