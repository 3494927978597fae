package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// UserHandler serves the account and channel endpoints.
type UserHandler struct {
	Users          UserStore
	Media          MediaHost
	MaxUploadBytes int64
}

type imageSaver func(ctx context.Context, id uuid.UUID, url string) (models.User, error)

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	user, err := h.Users.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return unauthorized("Invalid access token")
		}
		return err
	}
	return respond(ctx, w, http.StatusOK, user, "Current user fetched successfully")
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if fullName == "" || email == "" {
		return badRequest("All fields are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return badRequest("Invalid email address")
	}

	user, err := h.Users.UpdateAccount(ctx, id.UserID, fullName, email)
	switch {
	case errors.Is(err, repositories.ErrConflict):
		return conflict("Email is already in use")
	case errors.Is(err, repositories.ErrNotFound):
		return notFound("User does not exist")
	case err != nil:
		return err
	}
	return respond(ctx, w, http.StatusOK, user, "Account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) error {
	return h.replaceImage(w, r, "avatar", "avatars", h.Users.UpdateAvatar,
		func(u models.User) string { return u.Avatar }, "Avatar image updated successfully")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) error {
	return h.replaceImage(w, r, "coverImage", "covers", h.Users.UpdateCoverImage,
		func(u models.User) string { return u.CoverImage }, "Cover image updated successfully")
}

// replaceImage uploads the named part, stores its URL with save, then removes the
// asset it replaced.
func (h UserHandler) replaceImage(
	w http.ResponseWriter,
	r *http.Request,
	field, kind string,
	save imageSaver,
	current func(models.User) string,
	message string,
) error {
	ctx := r.Context()
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		return err
	}
	file, err := spool(r, field)
	if err != nil {
		return err
	}
	defer file.Remove()
	if file == nil {
		return badRequest("%s file is missing", field)
	}

	previous, err := h.Users.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("User does not exist")
		}
		return err
	}

	batch := h.Media.NewBatch()
	defer batch.Rollback(ctx)

	url, err := batch.Upload(ctx, kind, file.Path)
	if err != nil {
		return err
	}
	user, err := save(ctx, id.UserID, url)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("User does not exist")
		}
		return err
	}
	batch.Commit()

	if old := current(previous); old != "" && old != url {
		h.Media.Remove(ctx, old)
	}
	logging.FromContext(ctx).Info("user image replaced", "userId", id.UserID, "field", field)
	return respond(ctx, w, http.StatusOK, user, message)
}

// ChannelProfile handles GET /api/v1/users/c/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		return badRequest("username is missing")
	}

	profile, err := h.Users.ChannelProfile(ctx, username, viewerID(r))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Channel does not exist")
		}
		return err
	}
	return respond(ctx, w, http.StatusOK, profile, "User channel fetched successfully")
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	history, err := h.Users.WatchHistory(ctx, id.UserID)
	if err != nil {
		return err
	}
	return respond(ctx, w, http.StatusOK, history, "Watch history fetched successfully")
}
