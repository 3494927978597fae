package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// CommentHandler serves comments attached to videos.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	NowFunc  func() time.Time
}

type contentRequest struct {
	Content string `json:"content"`
}

type commentList struct {
	Comments []models.CommentView `json:"comments"`
	Page     int                  `json:"page"`
	Limit    int                  `json:"limit"`
	Total    int                  `json:"total"`
}

// List handles GET /api/v1/comments/{videoId}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId", "video Id")
	if err != nil {
		return err
	}

	q := r.URL.Query()
	page, err := h.Comments.ListForVideo(ctx, videoID, queryInt(q.Get("page"), 1), queryInt(q.Get("limit"), 10))
	if err != nil {
		return err
	}
	return respond(ctx, w, http.StatusOK, commentList{
		Comments: page.Items,
		Page:     page.Page,
		Limit:    page.Limit,
		Total:    page.Total,
	}, "Comments fetched successfully")
}

// Add handles POST /api/v1/comments/add/{videoId}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	content, err := readContent(r)
	if err != nil {
		return err
	}
	videoID, err := pathID(r, "videoId", "video Id")
	if err != nil {
		return err
	}
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Video not found")
		}
		return err
	}

	now := stamp(h.NowFunc)
	comment := models.Comment{
		ID:        uuid.New(),
		OwnerID:   id.UserID,
		VideoID:   videoID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Comments.Create(ctx, comment); err != nil {
		return err
	}
	return respond(ctx, w, http.StatusCreated, comment, "Comment added successfully")
}

// Update handles PATCH /api/v1/comments/update/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	content, err := readContent(r)
	if err != nil {
		return err
	}
	commentID, err := pathID(r, "commentId", "comment Id")
	if err != nil {
		return err
	}
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	if _, err := h.ownedComment(r, commentID, id, "update this comment"); err != nil {
		return err
	}
	updated, err := h.Comments.UpdateContent(ctx, commentID, content)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Comment not found")
		}
		return err
	}
	return respond(ctx, w, http.StatusOK, updated, "Comment updated successfully")
}

// Delete handles POST /api/v1/comments/delete/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	commentID, err := pathID(r, "commentId", "comment Id")
	if err != nil {
		return err
	}
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	if _, err := h.ownedComment(r, commentID, id, "delete this comment"); err != nil {
		return err
	}
	if err := h.Comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Comment not found")
		}
		return err
	}
	return respond(ctx, w, http.StatusOK, struct{}{}, "Comment deleted successfully")
}

func (h CommentHandler) ownedComment(r *http.Request, commentID uuid.UUID, id auth.Identity, action string) (models.Comment, error) {
	comment, err := h.Comments.FindByID(r.Context(), commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, notFound("Comment not found")
		}
		return models.Comment{}, err
	}
	if err := requireOwner(comment, id, action); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

// readContent decodes {"content": ...} and rejects blank content.
func readContent(r *http.Request) (string, error) {
	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return "", badRequest("Content is required")
	}
	return content, nil
}

func stamp(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}
