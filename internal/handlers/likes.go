package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/models"
)

// LikeHandler toggles likes on videos, comments and tweets.
type LikeHandler struct {
	Likes LikeStore
}

type likeState struct {
	IsLiked bool `json:"isLiked"`
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(w, r, models.LikeTargetVideo, "videoId", "Video")
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(w, r, models.LikeTargetComment, "commentId", "Comment")
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) error {
	return h.toggle(w, r, models.LikeTargetTweet, "tweetId", "Tweet")
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, target models.LikeTarget, param, label string) error {
	ctx := r.Context()
	targetID, err := pathID(r, param, string(target)+" Id")
	if err != nil {
		return err
	}
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	liked, err := h.Likes.Toggle(ctx, target, targetID, id.UserID)
	if err != nil {
		return err
	}

	message := label + " unliked successfully"
	if liked {
		message = label + " liked successfully"
	}
	return respond(ctx, w, http.StatusOK, likeState{IsLiked: liked}, message)
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	videos, err := h.Likes.LikedVideos(ctx, id.UserID)
	if err != nil {
		return err
	}
	return respond(ctx, w, http.StatusOK, videos, "Liked videos fetched successfully")
}
