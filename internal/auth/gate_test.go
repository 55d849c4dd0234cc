package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/meetfood/backend/internal/identity"
	"github.com/meetfood/backend/internal/models"
	"github.com/meetfood/backend/internal/repositories"
)

type fakeVerifier struct {
	subjects map[string]string
}

func (f fakeVerifier) Verify(_ context.Context, token string) (string, error) {
	subject, ok := f.subjects[token]
	if !ok {
		return "", identity.ErrInvalidToken
	}
	return subject, nil
}

type fakeResolver struct {
	users map[string]models.User
}

func (f fakeResolver) FindBySubject(_ context.Context, subject string) (models.User, error) {
	user, ok := f.users[subject]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func captureHandler(captured *Context, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if ac, ok := FromContext(r.Context()); ok {
			*captured = ac
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireMissingToken(t *testing.T) {
	gate := NewGate(fakeVerifier{}, fakeResolver{})

	called := false
	var captured Context
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	gate.Require(captureHandler(&captured, &called)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	if called {
		t.Fatal("handler must not run without a token")
	}
}

func TestRequireInvalidToken(t *testing.T) {
	gate := NewGate(fakeVerifier{subjects: map[string]string{"good": "sub-1"}}, fakeResolver{})

	called := false
	var captured Context
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TokenHeader, "bad")
	rec := httptest.NewRecorder()
	gate.Require(captureHandler(&captured, &called)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	if called {
		t.Fatal("handler must not run with an invalid token")
	}
}

func TestRequireResolvesRegisteredUser(t *testing.T) {
	userID := primitive.NewObjectID()
	gate := NewGate(
		fakeVerifier{subjects: map[string]string{"good": "sub-1"}},
		fakeResolver{users: map[string]models.User{"sub-1": {ID: userID, SubjectID: "sub-1"}}},
	)

	called := false
	var captured Context
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TokenHeader, "good")
	rec := httptest.NewRecorder()
	gate.Require(captureHandler(&captured, &called)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if !called {
		t.Fatal("handler did not run")
	}
	if captured.Subject != "sub-1" {
		t.Fatalf("expected subject sub-1, got %q", captured.Subject)
	}
	if captured.UserID == nil || *captured.UserID != userID {
		t.Fatalf("expected resolved user id %s, got %v", userID.Hex(), captured.UserID)
	}
}

func TestRequireUnregisteredSubject(t *testing.T) {
	gate := NewGate(fakeVerifier{subjects: map[string]string{"good": "sub-1"}}, fakeResolver{})

	called := false
	var captured Context
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TokenHeader, "good")
	rec := httptest.NewRecorder()
	gate.Require(captureHandler(&captured, &called)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if captured.Subject != "sub-1" {
		t.Fatalf("expected subject sub-1, got %q", captured.Subject)
	}
	if captured.UserID != nil {
		t.Fatalf("expected no local user id, got %v", captured.UserID)
	}
}

func TestOptionalWithoutToken(t *testing.T) {
	gate := NewGate(fakeVerifier{}, fakeResolver{})

	called := false
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	gate.Optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := FromContext(r.Context()); ok {
			t.Error("expected no identity on the context")
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if !called {
		t.Fatal("handler did not run")
	}
}

func TestOptionalRejectsBadToken(t *testing.T) {
	gate := NewGate(fakeVerifier{}, fakeResolver{})

	called := false
	var captured Context
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TokenHeader, "bad")
	rec := httptest.NewRecorder()
	gate.Optional(captureHandler(&captured, &called)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	if called {
		t.Fatal("handler must not run with an invalid token")
	}
}
