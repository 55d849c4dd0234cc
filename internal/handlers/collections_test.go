package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meetfood/backend/internal/auth"
	"github.com/meetfood/backend/internal/models"
	"github.com/meetfood/backend/internal/repositories"
)

func seedPost(t *testing.T, posts *inMemoryPostStore, owner primitive.ObjectID, title string) models.VideoPost {
	t.Helper()
	post, err := posts.Insert(context.Background(), models.VideoPost{
		UserID:    owner,
		PostTitle: title,
		VideoURL:  "https://cdn.test/video/1-" + title + ".mp4",
		Comments:  []models.Comment{},
		Likes:     []models.Like{},
	})
	if err != nil {
		t.Fatalf("seed post %s: %v", title, err)
	}
	return post
}

func collectionRequest(t *testing.T, method string, user models.User, post models.VideoPost) *http.Request {
	t.Helper()
	req := authedRequest(t, method, "/api/v1/user/videos/collection/"+post.ID.Hex(), nil,
		auth.Context{Subject: user.SubjectID, UserID: &user.ID})
	req.SetPathValue("videoPostId", post.ID.Hex())
	return req
}

func TestAddToCollection(t *testing.T) {
	users := newInMemoryUserStore()
	posts := newInMemoryPostStore()
	user := seedUser(t, users, "sub-123", "bob")
	post := seedPost(t, posts, user.ID, "ramen")
	handler := CollectionHandler{Users: users, Posts: posts, Hydrator: repositories.NewHydrator(users, posts)}

	rec := httptest.NewRecorder()
	handler.Handle(rec, collectionRequest(t, http.MethodPost, user, post))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, _ := users.FindByID(context.Background(), user.ID)
	if len(stored.Collections) != 1 || stored.Collections[0].VideoPost != post.ID {
		t.Fatalf("expected collection to contain the post, got %v", stored.Collections)
	}
	updated, _ := posts.FindByID(context.Background(), post.ID)
	if updated.CountCollections != 1 {
		t.Fatalf("expected collection counter 1, got %d", updated.CountCollections)
	}
}

func TestAddToCollectionRepeatFails(t *testing.T) {
	users := newInMemoryUserStore()
	posts := newInMemoryPostStore()
	user := seedUser(t, users, "sub-123", "bob")
	post := seedPost(t, posts, user.ID, "ramen")
	handler := CollectionHandler{Users: users, Posts: posts, Hydrator: repositories.NewHydrator(users, posts)}

	rec := httptest.NewRecorder()
	handler.Handle(rec, collectionRequest(t, http.MethodPost, user, post))
	if rec.Code != http.StatusOK {
		t.Fatalf("first add failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.Handle(rec, collectionRequest(t, http.MethodPost, user, post))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}

	updated, _ := posts.FindByID(context.Background(), post.ID)
	if updated.CountCollections != 1 {
		t.Fatalf("expected collection counter to stay at 1, got %d", updated.CountCollections)
	}
}

func TestAddToCollectionMissingPost(t *testing.T) {
	users := newInMemoryUserStore()
	posts := newInMemoryPostStore()
	user := seedUser(t, users, "sub-123", "bob")
	handler := CollectionHandler{Users: users, Posts: posts, Hydrator: repositories.NewHydrator(users, posts)}

	missing := models.VideoPost{ID: primitive.NewObjectID()}
	rec := httptest.NewRecorder()
	handler.Handle(rec, collectionRequest(t, http.MethodPost, user, missing))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestRemoveFromCollection(t *testing.T) {
	users := newInMemoryUserStore()
	posts := newInMemoryPostStore()
	user := seedUser(t, users, "sub-123", "bob")
	post := seedPost(t, posts, user.ID, "ramen")
	handler := CollectionHandler{Users: users, Posts: posts, Hydrator: repositories.NewHydrator(users, posts)}

	rec := httptest.NewRecorder()
	handler.Handle(rec, collectionRequest(t, http.MethodPost, user, post))
	if rec.Code != http.StatusOK {
		t.Fatalf("add failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.Handle(rec, collectionRequest(t, http.MethodDelete, user, post))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, _ := users.FindByID(context.Background(), user.ID)
	if len(stored.Collections) != 0 {
		t.Fatalf("expected empty collection, got %v", stored.Collections)
	}
	updated, _ := posts.FindByID(context.Background(), post.ID)
	if updated.CountCollections != 0 {
		t.Fatalf("expected collection counter 0, got %d", updated.CountCollections)
	}

	rec = httptest.NewRecorder()
	handler.Handle(rec, collectionRequest(t, http.MethodDelete, user, post))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d for a second remove, got %d", http.StatusBadRequest, rec.Code)
	}
}
