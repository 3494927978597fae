package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// TweetHandler serves channel tweets.
type TweetHandler struct {
	Tweets  TweetStore
	NowFunc func() time.Time
}

// Create handles POST /api/v1/tweets/create.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	content, err := readContent(r)
	if err != nil {
		return err
	}
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	now := stamp(h.NowFunc)
	tweet := models.Tweet{
		ID:        uuid.New(),
		OwnerID:   id.UserID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Tweets.Create(ctx, tweet); err != nil {
		return err
	}
	return respond(ctx, w, http.StatusCreated, tweet, "Tweet created successfully")
}

// ListForUser handles GET /api/v1/tweets/{userId}.
func (h TweetHandler) ListForUser(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	userID, err := pathID(r, "userId", "user Id")
	if err != nil {
		return err
	}

	tweets, err := h.Tweets.ListForUser(ctx, userID, viewerID(r))
	if err != nil {
		return err
	}
	return respond(ctx, w, http.StatusOK, tweets, "Tweets fetched successfully")
}

// Update handles PATCH /api/v1/tweets/update/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	content, err := readContent(r)
	if err != nil {
		return err
	}
	tweetID, err := pathID(r, "tweetId", "tweet Id")
	if err != nil {
		return err
	}
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	if err := h.checkOwner(r, tweetID, id, "update this tweet"); err != nil {
		return err
	}
	updated, err := h.Tweets.UpdateContent(ctx, tweetID, content)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Tweet not found")
		}
		return err
	}
	return respond(ctx, w, http.StatusOK, updated, "Tweet updated successfully")
}

// Delete handles POST /api/v1/tweets/delete/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	tweetID, err := pathID(r, "tweetId", "tweet Id")
	if err != nil {
		return err
	}
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	if err := h.checkOwner(r, tweetID, id, "delete this tweet"); err != nil {
		return err
	}
	if err := h.Tweets.Delete(ctx, tweetID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Tweet not found")
		}
		return err
	}
	return respond(ctx, w, http.StatusOK, struct{}{}, "Tweet deleted successfully")
}

func (h TweetHandler) checkOwner(r *http.Request, tweetID uuid.UUID, id auth.Identity, action string) error {
	tweet, err := h.Tweets.FindByID(r.Context(), tweetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Tweet not found")
		}
		return err
	}
	return requireOwner(tweet, id, action)
}
