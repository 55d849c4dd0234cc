package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/meetfood/backend/internal/identity"
	"github.com/meetfood/backend/internal/logging"
	"github.com/meetfood/backend/internal/models"
	"github.com/meetfood/backend/internal/repositories"
)

// TokenHeader is the request header carrying the Cognito access token.
const TokenHeader = "Cognito-Token"

// SubjectResolver looks up the local account registered for a subject.
type SubjectResolver interface {
	FindBySubject(ctx context.Context, subject string) (models.User, error)
}

// Gate authenticates inbound requests against the identity provider and
// resolves the caller's local account. It performs exactly one user lookup
// per gated request and caches nothing between requests.
type Gate struct {
	Verifier identity.Verifier
	Users    SubjectResolver
}

// NewGate constructs an auth gate from its collaborators.
func NewGate(verifier identity.Verifier, users SubjectResolver) *Gate {
	if verifier == nil || users == nil {
		panic("auth: gate requires a verifier and a user resolver")
	}
	return &Gate{Verifier: verifier, Users: users}
}

// Require rejects requests without a valid token. On success the request
// context carries the subject and, when registered, the local user id.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(TokenHeader)
		if token == "" {
			unauthorized(w, "access token not found")
			return
		}

		ctx, ok := g.resolve(w, r, token)
		if !ok {
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional behaves like Require except that a missing token is not an
// error: the request proceeds with no identity attached and downstream
// logic decides what anonymous callers may do.
func (g *Gate) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(TokenHeader)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx, ok := g.resolve(w, r, token)
		if !ok {
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolve verifies the token and attaches the caller identity to a derived
// context. It writes the error response itself when verification fails.
func (g *Gate) resolve(w http.ResponseWriter, r *http.Request, token string) (context.Context, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	subject, err := g.Verifier.Verify(ctx, token)
	if err != nil {
		logger.Warn("token verification failed", "error", err)
		unauthorized(w, err.Error())
		return nil, false
	}

	ac := Context{Subject: subject}

	user, err := g.Users.FindBySubject(ctx, subject)
	switch {
	case err == nil:
		id := user.ID
		ac.UserID = &id
	case errors.Is(err, repositories.ErrNotFound):
		// Authenticated but not yet registered; handlers decide whether
		// that is acceptable.
	default:
		logger.Error("subject lookup failed", "error", err, "subject", subject)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unable to resolve account"})
		return nil, false
	}

	return WithContext(ctx, ac), true
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
