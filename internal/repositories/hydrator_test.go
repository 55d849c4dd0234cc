package repositories

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meetfood/backend/internal/models"
)

type mapUserFinder struct {
	users map[primitive.ObjectID]models.User
	calls int
}

func (f *mapUserFinder) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	f.calls++
	user, ok := f.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

type mapPostFinder struct {
	posts map[primitive.ObjectID]models.VideoPost
}

func (f *mapPostFinder) FindByID(_ context.Context, id primitive.ObjectID) (models.VideoPost, error) {
	post, ok := f.posts[id]
	if !ok {
		return models.VideoPost{}, ErrNotFound
	}
	return post, nil
}

func TestHydratePostResolvesOwnerAndAuthors(t *testing.T) {
	owner := models.User{ID: primitive.NewObjectID(), UserName: "chef"}
	commenter := models.User{ID: primitive.NewObjectID(), UserName: "amy"}
	users := &mapUserFinder{users: map[primitive.ObjectID]models.User{owner.ID: owner, commenter.ID: commenter}}
	posts := &mapPostFinder{posts: map[primitive.ObjectID]models.VideoPost{}}

	post := models.VideoPost{
		ID:     primitive.NewObjectID(),
		UserID: owner.ID,
		Comments: []models.Comment{
			{ID: primitive.NewObjectID(), UserID: commenter.ID, Text: "yum"},
			{ID: primitive.NewObjectID(), UserID: owner.ID, Text: "thanks"},
		},
	}

	view, err := NewHydrator(users, posts).HydratePost(context.Background(), post, nil)
	if err != nil {
		t.Fatalf("hydrate failed: %v", err)
	}
	if view.Owner == nil || view.Owner.UserName != "chef" {
		t.Fatalf("expected owner summary, got %+v", view.Owner)
	}
	if len(view.Comments) != 2 {
		t.Fatalf("expected two comments, got %d", len(view.Comments))
	}
	if view.Comments[0].Author == nil || view.Comments[0].Author.UserName != "amy" {
		t.Fatalf("expected first comment author amy, got %+v", view.Comments[0].Author)
	}
	if view.Comments[1].Author == nil || view.Comments[1].Author.UserName != "chef" {
		t.Fatalf("expected second comment author chef, got %+v", view.Comments[1].Author)
	}
}

func TestHydratePostCachesAuthorLookups(t *testing.T) {
	owner := models.User{ID: primitive.NewObjectID(), UserName: "chef"}
	users := &mapUserFinder{users: map[primitive.ObjectID]models.User{owner.ID: owner}}
	posts := &mapPostFinder{posts: map[primitive.ObjectID]models.VideoPost{}}

	post := models.VideoPost{
		ID:     primitive.NewObjectID(),
		UserID: owner.ID,
		Comments: []models.Comment{
			{ID: primitive.NewObjectID(), UserID: owner.ID, Text: "a"},
			{ID: primitive.NewObjectID(), UserID: owner.ID, Text: "b"},
		},
	}

	if _, err := NewHydrator(users, posts).HydratePost(context.Background(), post, nil); err != nil {
		t.Fatalf("hydrate failed: %v", err)
	}
	if users.calls != 1 {
		t.Fatalf("expected a single user lookup, got %d", users.calls)
	}
}

func TestHydratePostMissingAuthor(t *testing.T) {
	users := &mapUserFinder{users: map[primitive.ObjectID]models.User{}}
	posts := &mapPostFinder{posts: map[primitive.ObjectID]models.VideoPost{}}

	post := models.VideoPost{
		ID:     primitive.NewObjectID(),
		UserID: primitive.NewObjectID(),
		Comments: []models.Comment{
			{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), Text: "ghost"},
		},
	}

	view, err := NewHydrator(users, posts).HydratePost(context.Background(), post, nil)
	if err != nil {
		t.Fatalf("hydrate failed: %v", err)
	}
	if view.Owner != nil {
		t.Fatalf("expected nil owner for a deleted user, got %+v", view.Owner)
	}
	if len(view.Comments) != 1 || view.Comments[0].Author != nil {
		t.Fatalf("expected the comment kept with a nil author, got %+v", view.Comments)
	}
}

func TestHydratePostRefsSkipsDanglingRefs(t *testing.T) {
	owner := models.User{ID: primitive.NewObjectID(), UserName: "chef"}
	kept := models.VideoPost{ID: primitive.NewObjectID(), UserID: owner.ID, PostTitle: "ramen"}
	users := &mapUserFinder{users: map[primitive.ObjectID]models.User{owner.ID: owner}}
	posts := &mapPostFinder{posts: map[primitive.ObjectID]models.VideoPost{kept.ID: kept}}

	views, err := NewHydrator(users, posts).HydratePostRefs(context.Background(),
		[]primitive.ObjectID{primitive.NewObjectID(), kept.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("hydrate failed: %v", err)
	}
	if len(views) != 1 || views[0].PostTitle != "ramen" {
		t.Fatalf("expected only the surviving post, got %+v", views)
	}
}

func TestHydrateProfile(t *testing.T) {
	owner := models.User{ID: primitive.NewObjectID(), UserName: "chef"}
	collected := models.VideoPost{ID: primitive.NewObjectID(), UserID: owner.ID, PostTitle: "saved"}
	uploaded := models.VideoPost{ID: primitive.NewObjectID(), UserID: owner.ID, PostTitle: "mine"}
	owner.Collections = []models.CollectionEntry{{VideoPost: collected.ID}}
	owner.Videos = []models.VideoEntry{{VideoPost: uploaded.ID}}
	owner.LikedVideos = []models.LikedEntry{{VideoPost: primitive.NewObjectID()}}

	users := &mapUserFinder{users: map[primitive.ObjectID]models.User{owner.ID: owner}}
	posts := &mapPostFinder{posts: map[primitive.ObjectID]models.VideoPost{collected.ID: collected, uploaded.ID: uploaded}}

	profile, err := NewHydrator(users, posts).HydrateProfile(context.Background(), owner)
	if err != nil {
		t.Fatalf("hydrate failed: %v", err)
	}
	if len(profile.CollectionPosts) != 1 || profile.CollectionPosts[0].PostTitle != "saved" {
		t.Fatalf("unexpected collection posts %+v", profile.CollectionPosts)
	}
	if len(profile.UploadedPosts) != 1 || profile.UploadedPosts[0].PostTitle != "mine" {
		t.Fatalf("unexpected uploaded posts %+v", profile.UploadedPosts)
	}
	if len(profile.LikedPosts) != 0 {
		t.Fatalf("expected the dangling liked reference dropped, got %+v", profile.LikedPosts)
	}
}
