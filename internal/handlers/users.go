package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/meetfood/backend/internal/auth"
	"github.com/meetfood/backend/internal/logging"
	"github.com/meetfood/backend/internal/models"
	"github.com/meetfood/backend/internal/repositories"
	"github.com/meetfood/backend/internal/storage"
)

// UserHandler implements the account lifecycle endpoints: create, profile
// read/update, profile photo replacement, and account deletion.
type UserHandler struct {
	Users    UserStore
	Posts    VideoPostStore
	Storage  ObjectStorage
	Cleaner  BlobCleaner
	Identity IdentityAdmin
	Hydrator *repositories.Hydrator
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

// Create handles POST /api/v1/user/create requests. The body carries
// exactly one field, the account email; the subject comes from the token.
func (h UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "user-create") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	ac, ok := auth.FromContext(ctx)
	if !ok || ac.Subject == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logger.Warn("invalid create payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if len(body) > 1 {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "too many parameters, only email is accepted"})
		return
	}

	var email string
	if raw, ok := body["email"]; ok {
		if err := json.Unmarshal(raw, &email); err != nil {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "email must be a string"})
			return
		}
	}
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "a valid email is required"})
		return
	}

	if ac.UserID != nil {
		respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "the user is already registered, please sign in"})
		return
	}

	// Default user name is the local part of the email; fall back to
	// appending the subject when another account already holds it.
	userName := email[:strings.LastIndex(email, "@")]
	if _, err := h.Users.FindByUserName(ctx, userName); err == nil {
		userName = userName + ac.Subject
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("user name lookup failed", "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to verify user name"})
		return
	}

	user := models.User{
		SubjectID:   ac.Subject,
		UserName:    userName,
		Email:       email,
		Collections: []models.CollectionEntry{},
		LikedVideos: []models.LikedEntry{},
		Videos:      []models.VideoEntry{},
		CreatedTime: h.now(),
	}

	created, err := h.Users.Insert(ctx, user)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "the user is already registered, please sign in"})
			return
		}
		logger.Error("create user failed", "error", err, "subject", ac.Subject)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to create account"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message": "User account created successfully.",
		"user":    created,
	})
}

// ProfileMe handles GET and POST /api/v1/user/profile/me.
func (h UserHandler) ProfileMe(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.profile(w, r)
	case http.MethodPost:
		h.updateProfile(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h UserHandler) profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	view, err := h.Hydrator.HydrateProfile(ctx, user)
	if err != nil {
		logger.Error("hydrate profile failed", "error", err, "userId", user.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to retrieve user profile"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, view)
}

// profileFields are the only keys an update request may carry. Absent
// fields are cleared, not preserved: the update is a full replacement of
// the editable profile.
var profileFields = map[string]struct{}{
	"userName":  {},
	"firstName": {},
	"lastName":  {},
}

func (h UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	ac, _ := auth.FromContext(ctx)

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logger.Warn("invalid profile payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if len(body) > 3 {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "too many parameters, please send at most 3"})
		return
	}
	for key := range body {
		if _, ok := profileFields[key]; !ok {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unknown parameter " + key})
			return
		}
	}

	get := func(key string) string {
		raw, ok := body[key]
		if !ok {
			return ""
		}
		var s string
		_ = json.Unmarshal(raw, &s)
		return s
	}
	newUserName := get("userName")
	newFirstName := get("firstName")
	newLastName := get("lastName")

	if newUserName != "" {
		holder, err := h.Users.FindByUserName(ctx, newUserName)
		switch {
		case err == nil && holder.SubjectID != ac.Subject:
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "user name already exists, please try another name"})
			return
		case err != nil && !errors.Is(err, repositories.ErrNotFound):
			logger.Error("user name lookup failed", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to verify user name"})
			return
		}
	}

	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	user.UserName = newUserName
	user.FirstName = newFirstName
	user.LastName = newLastName

	if err := h.Users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondJSON(ctx, w, http.StatusConflict, map[string]string{"error": "user name already exists, please try another name"})
			return
		}
		logger.Error("update profile failed", "error", err, "userId", user.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to update profile"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message": "User profile is updated.",
		"user":    user,
	})
}

// UpdatePhoto handles POST /api/v1/user/profile/photo. The flow is
// deliberately non-transactional: the new blob is uploaded first, the old
// blob is deleted best-effort in the background, and only then is the new
// URL persisted. A failed persist leaves an orphaned blob behind.
func (h UserHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("profile-photo")
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "a profile photo file is required"})
		return
	}
	defer file.Close()

	key, err := h.Storage.Upload(ctx, storage.CategoryProfilePhoto, header.Filename, file)
	if err != nil {
		logger.Error("profile photo upload failed", "error", err, "userId", user.ID.Hex())
		respondJSON(ctx, w, http.StatusBadGateway, map[string]string{"error": "failed to upload profile photo"})
		return
	}

	if user.ProfilePhoto != "" {
		oldKey := storage.KeyFromURL(user.ProfilePhoto)
		if err := h.Cleaner.Enqueue(ctx, storage.CategoryProfilePhoto, oldKey); err != nil {
			logger.Warn("could not schedule old photo cleanup", "error", err, "key", oldKey)
		}
	}

	user.ProfilePhoto = h.Storage.URL(storage.CategoryProfilePhoto, key)

	if err := h.Users.Update(ctx, user); err != nil {
		// The uploaded blob is now orphaned; accepted limitation.
		logger.Error("persist profile photo failed", "error", err, "userId", user.ID.Hex(), "key", key)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to update profile photo"})
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message": "User profile photo is updated.",
		"user":    user,
	})
}

// Delete handles DELETE /api/v1/user/delete. Local deletion is
// authoritative: the identity-provider account removal runs last and its
// failure is reported without resurrecting the local record.
func (h UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid delete payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}

	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if user.ProfilePhoto != "" {
		oldKey := storage.KeyFromURL(user.ProfilePhoto)
		if err := h.Cleaner.Enqueue(ctx, storage.CategoryProfilePhoto, oldKey); err != nil {
			logger.Warn("could not schedule photo cleanup", "error", err, "key", oldKey)
		}
	}

	if err := h.Users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "the user is not found"})
			return
		}
		logger.Error("delete user failed", "error", err, "userId", user.ID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "failed to delete account"})
		return
	}

	payload := map[string]any{
		"message": "User account deleted successfully.",
	}
	if err := h.Identity.DeleteAccount(ctx, req.Email); err != nil {
		logger.Error("identity provider deletion failed", "error", err, "email", req.Email)
		payload["warning"] = "the account could not be removed from the identity provider: " + err.Error()
	}

	respondJSON(ctx, w, http.StatusOK, payload)
}

// requireUser resolves the caller's local account and writes the error
// response itself when the caller is not registered.
func (h UserHandler) requireUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	return requireUser(w, r, h.Users)
}

func requireUser(w http.ResponseWriter, r *http.Request, users UserStore) (models.User, bool) {
	ctx := r.Context()

	ac, ok := auth.FromContext(ctx)
	if !ok || ac.Subject == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return models.User{}, false
	}
	if ac.UserID == nil {
		respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "can not find the user"})
		return models.User{}, false
	}

	user, err := users.FindByID(ctx, *ac.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusNotFound, map[string]string{"error": "can not find the user"})
			return models.User{}, false
		}
		logging.FromContext(ctx).Error("user lookup failed", "error", err, "userId", ac.UserID.Hex())
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to load user"})
		return models.User{}, false
	}

	return user, true
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
