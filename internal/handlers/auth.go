package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// AuthHandler implements registration and the session endpoints.
type AuthHandler struct {
	Users          UserStore
	Sessions       SessionManager
	Media          MediaHost
	Cookies        CookieConfig
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Register handles POST /api/v1/users/register.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		return err
	}

	username := strings.ToLower(formValue(r, "username"))
	email := strings.ToLower(formValue(r, "email"))
	fullName := formValue(r, "fullname")
	if fullName == "" {
		fullName = formValue(r, "fullName")
	}
	password := r.FormValue("password")
	if username == "" || email == "" || fullName == "" || strings.TrimSpace(password) == "" {
		return badRequest("All fields are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return badRequest("Invalid email address")
	}

	if _, err := h.Users.FindByIdentifier(ctx, username, email); err == nil {
		logger.Warn("register existing account", "username", username, "email", email)
		return conflict("User with username or email already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	avatar, err := spool(r, "avatar")
	if err != nil {
		return err
	}
	defer avatar.Remove()
	if avatar == nil {
		return badRequest("Avatar file is required")
	}
	cover, err := spool(r, "coverImage")
	if err != nil {
		return err
	}
	defer cover.Remove()

	hash, err := h.Sessions.HashPassword(password)
	if err != nil {
		return err
	}

	batch := h.Media.NewBatch()
	defer batch.Rollback(ctx)

	avatarURL, err := batch.Upload(ctx, "avatars", avatar.Path)
	if err != nil {
		return err
	}
	var coverURL string
	if cover != nil {
		if coverURL, err = batch.Upload(ctx, "covers", cover.Path); err != nil {
			return err
		}
	}

	now := h.now()
	user := models.User{
		ID:         uuid.New(),
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Avatar:     avatarURL,
		CoverImage: coverURL,
		Password:   hash,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return conflict("User with username or email already exists")
		}
		return err
	}
	batch.Commit()

	logger.Info("user registered", "userId", user.ID)
	return respond(ctx, w, http.StatusCreated, user, "User registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	user, tokens, err := h.Sessions.Login(ctx, req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return badRequest("username or email and password are required")
	case errors.Is(err, auth.ErrUserNotFound):
		return notFound("User does not exist")
	case errors.Is(err, auth.ErrInvalidCredentials):
		logging.FromContext(ctx).Warn("login password mismatch", "username", req.Username, "email", req.Email)
		return unauthorized("Invalid user credentials")
	case err != nil:
		return err
	}

	h.Cookies.setSession(w, tokens)
	return respond(ctx, w, http.StatusOK, loginResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "User logged in successfully")
}

// Logout handles POST /api/v1/users/logout.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	if err := h.Sessions.Logout(ctx, id); err != nil {
		return err
	}

	h.Cookies.clearSession(w)
	return respond(ctx, w, http.StatusOK, struct{}{}, "User logged out")
}

// RefreshToken handles POST /api/v1/users/refresh-token. The token is read from
// the refreshToken cookie, falling back to the JSON body.
func (h AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var token string
	if c, err := r.Cookie(refreshTokenCookie); err == nil {
		token = strings.TrimSpace(c.Value)
	}
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		token = strings.TrimSpace(req.RefreshToken)
	}
	if token == "" {
		return unauthorized("Unauthorized request")
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefreshToken) {
			logging.FromContext(ctx).Warn("refresh token rejected")
			return unauthorized("Refresh token is expired or used")
		}
		return err
	}

	h.Cookies.setSession(w, tokens)
	return respond(ctx, w, http.StatusOK, tokens, "Access token refreshed")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	err = h.Sessions.ChangePassword(ctx, id.UserID, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return badRequest("Current and new password are required")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return unauthorized("Invalid old password")
	case errors.Is(err, auth.ErrUserNotFound):
		return notFound("User does not exist")
	case err != nil:
		return err
	}

	return respond(ctx, w, http.StatusOK, struct{}{}, "Password changed successfully")
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc().UTC()
	}
	return time.Now().UTC()
}
