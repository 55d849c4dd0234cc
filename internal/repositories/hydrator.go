package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meetfood/backend/internal/models"
)

type userFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

type postFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (models.VideoPost, error)
}

// Hydrator expands document references with explicit, bounded follow-up
// fetches: a post resolves its owner summary and comment authors, and
// expansion stops there. Dangling references are skipped rather than
// treated as errors, since referenced documents may be deleted at any time.
type Hydrator struct {
	users userFinder
	posts postFinder
}

// NewHydrator constructs a hydrator over the provided stores.
func NewHydrator(users userFinder, posts postFinder) *Hydrator {
	return &Hydrator{users: users, posts: posts}
}

// HydratePost resolves the owner and comment authors of a single post.
// Author lookups are deduplicated through the supplied cache when non-nil.
func (h *Hydrator) HydratePost(ctx context.Context, post models.VideoPost, cache map[primitive.ObjectID]*models.UserSummary) (models.VideoPostView, error) {
	if cache == nil {
		cache = make(map[primitive.ObjectID]*models.UserSummary)
	}

	owner, err := h.summary(ctx, post.UserID, cache)
	if err != nil {
		return models.VideoPostView{}, err
	}

	view := models.VideoPostView{
		VideoPost: post,
		Owner:     owner,
		Comments:  make([]models.CommentView, 0, len(post.Comments)),
	}

	for _, comment := range post.Comments {
		author, err := h.summary(ctx, comment.UserID, cache)
		if err != nil {
			return models.VideoPostView{}, err
		}
		view.Comments = append(view.Comments, models.CommentView{Comment: comment, Author: author})
	}

	return view, nil
}

// HydratePostRefs resolves a list of post references into hydrated views.
// References to deleted posts are dropped from the result.
func (h *Hydrator) HydratePostRefs(ctx context.Context, refs []primitive.ObjectID) ([]models.VideoPostView, error) {
	views := make([]models.VideoPostView, 0, len(refs))
	cache := make(map[primitive.ObjectID]*models.UserSummary)

	for _, ref := range refs {
		post, err := h.posts.FindByID(ctx, ref)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("hydrate post %s: %w", ref.Hex(), err)
		}

		view, err := h.HydratePost(ctx, post, cache)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return views, nil
}

// HydrateProfile expands a user's collection, liked and uploaded references.
func (h *Hydrator) HydrateProfile(ctx context.Context, user models.User) (models.ProfileView, error) {
	collected := make([]primitive.ObjectID, 0, len(user.Collections))
	for _, entry := range user.Collections {
		collected = append(collected, entry.VideoPost)
	}
	liked := make([]primitive.ObjectID, 0, len(user.LikedVideos))
	for _, entry := range user.LikedVideos {
		liked = append(liked, entry.VideoPost)
	}
	uploaded := make([]primitive.ObjectID, 0, len(user.Videos))
	for _, entry := range user.Videos {
		uploaded = append(uploaded, entry.VideoPost)
	}

	collectionPosts, err := h.HydratePostRefs(ctx, collected)
	if err != nil {
		return models.ProfileView{}, err
	}
	likedPosts, err := h.HydratePostRefs(ctx, liked)
	if err != nil {
		return models.ProfileView{}, err
	}
	uploadedPosts, err := h.HydratePostRefs(ctx, uploaded)
	if err != nil {
		return models.ProfileView{}, err
	}

	return models.ProfileView{
		User:            user,
		CollectionPosts: collectionPosts,
		LikedPosts:      likedPosts,
		UploadedPosts:   uploadedPosts,
	}, nil
}

func (h *Hydrator) summary(ctx context.Context, id primitive.ObjectID, cache map[primitive.ObjectID]*models.UserSummary) (*models.UserSummary, error) {
	if summary, ok := cache[id]; ok {
		return summary, nil
	}

	user, err := h.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			cache[id] = nil
			return nil, nil
		}
		return nil, fmt.Errorf("hydrate user %s: %w", id.Hex(), err)
	}

	summary := user.Summary()
	cache[id] = &summary
	return &summary, nil
}
