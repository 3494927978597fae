package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// VideoHandler serves video uploads, edits and reads.
type VideoHandler struct {
	Videos         VideoStore
	Users          UserStore
	Media          MediaHost
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

type videoList struct {
	Videos []models.VideoView `json:"videos"`
	Page   int                `json:"page"`
	Limit  int                `json:"limit"`
	Total  int                `json:"total"`
}

type videoForm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// List handles GET /api/v1/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	q := r.URL.Query()

	query := models.VideoQuery{
		Page:     queryInt(q.Get("page"), 1),
		Limit:    queryInt(q.Get("limit"), 10),
		Search:   strings.TrimSpace(q.Get("query")),
		SortBy:   q.Get("sortBy"),
		SortDesc: !strings.EqualFold(q.Get("sortType"), "asc"),
	}
	if raw := strings.TrimSpace(q.Get("userId")); raw != "" {
		owner, err := uuid.Parse(raw)
		if err != nil {
			return badRequest("Invalid user Id")
		}
		query.OwnerID = owner
	}

	page, err := h.Videos.ListPublished(ctx, query)
	if err != nil {
		return err
	}
	return respond(ctx, w, http.StatusOK, videoList{
		Videos: page.Items,
		Page:   page.Page,
		Limit:  page.Limit,
		Total:  page.Total,
	}, "Videos fetched successfully")
}

// Publish handles POST /api/v1/videos/video.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		return err
	}
	title, description := formValue(r, "title"), formValue(r, "description")
	if title == "" || description == "" {
		return badRequest("Title and description is required")
	}

	videoFile, err := spool(r, "videoFile")
	if err != nil {
		return err
	}
	defer videoFile.Remove()
	thumbnail, err := spool(r, "thumbnail")
	if err != nil {
		return err
	}
	defer thumbnail.Remove()
	if videoFile == nil || thumbnail == nil {
		return badRequest("Video and thumbnail is required")
	}

	duration, err := h.Media.Probe(ctx, videoFile.Path)
	if err != nil && !errors.Is(err, media.ErrProberUnavailable) {
		logging.FromContext(ctx).Warn("video probe failed", "error", err)
		return badRequest("Video file could not be processed")
	}

	batch := h.Media.NewBatch()
	defer batch.Rollback(ctx)

	videoURL, err := batch.Upload(ctx, "videos", videoFile.Path)
	if err != nil {
		return err
	}
	thumbnailURL, err := batch.Upload(ctx, "thumbnails", thumbnail.Path)
	if err != nil {
		return err
	}

	now := h.now()
	video := models.Video{
		ID:          uuid.New(),
		OwnerID:     id.UserID,
		VideoFile:   videoURL,
		Thumbnail:   thumbnailURL,
		Title:       title,
		Description: description,
		Duration:    duration,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Videos.Create(ctx, video); err != nil {
		return err
	}
	batch.Commit()

	logging.FromContext(ctx).Info("video uploaded", "videoId", video.ID, "ownerId", video.OwnerID)
	return respond(ctx, w, http.StatusCreated, video, "Video is published successfully")
}

// Get handles GET /api/v1/videos/{videoId}. Unpublished videos are only visible to
// their owner. Authenticated views are added to the caller's watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId", "video Id")
	if err != nil {
		return err
	}
	viewer := viewerID(r)

	view, err := h.Videos.FindView(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Video not found")
		}
		return err
	}
	if !view.IsPublished && !models.OwnedBy(view.Video, viewer) {
		return notFound("Video not found")
	}

	logger := logging.FromContext(ctx)
	if err := h.Videos.IncrementViews(ctx, videoID); err != nil {
		logger.Warn("increment video views failed", "videoId", videoID, "error", err)
	} else {
		view.Views++
	}
	if viewer != uuid.Nil && h.Users != nil {
		if err := h.Users.RecordWatch(ctx, viewer, videoID); err != nil {
			logger.Warn("record watch history failed", "videoId", videoID, "error", err)
		}
	}

	return respond(ctx, w, http.StatusOK, view, "Video fetched successfully")
}

// Update handles PATCH /api/v1/videos/update/{videoId}. It accepts a multipart form
// with an optional thumbnail, or a JSON body with text fields only.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId", "video Id")
	if err != nil {
		return err
	}
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	var form videoForm
	var thumbnail *spooledFile
	if isMultipart(r) {
		if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
			return err
		}
		form = videoForm{Title: formValue(r, "title"), Description: formValue(r, "description")}
		if thumbnail, err = spool(r, "thumbnail"); err != nil {
			return err
		}
		defer thumbnail.Remove()
	} else if err := decodeJSON(r, &form); err != nil {
		return err
	}
	form.Title, form.Description = strings.TrimSpace(form.Title), strings.TrimSpace(form.Description)
	if form.Title == "" || form.Description == "" {
		return badRequest("Title and description is required")
	}

	video, err := h.ownedVideo(r, videoID, id, "update the video details")
	if err != nil {
		return err
	}

	batch := h.Media.NewBatch()
	defer batch.Rollback(ctx)

	previousThumbnail := video.Thumbnail
	if thumbnail != nil {
		if video.Thumbnail, err = batch.Upload(ctx, "thumbnails", thumbnail.Path); err != nil {
			return err
		}
	}
	video.Title, video.Description = form.Title, form.Description

	updated, err := h.Videos.Update(ctx, video)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Video not found")
		}
		return err
	}
	batch.Commit()

	if thumbnail != nil && previousThumbnail != "" {
		h.Media.Remove(ctx, previousThumbnail)
	}
	return respond(ctx, w, http.StatusOK, updated, "Video details updated successfully")
}

// Delete handles POST /api/v1/videos/delete/{videoId}. Media is removed before
// the record; failed media removals are retried in the background.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId", "video Id")
	if err != nil {
		return err
	}
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	video, err := h.ownedVideo(r, videoID, id, "delete this video")
	if err != nil {
		return err
	}

	h.Media.Remove(ctx, video.VideoFile, video.Thumbnail)
	if err := h.Videos.Delete(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Video not found")
		}
		return err
	}

	logging.FromContext(ctx).Info("video deleted", "videoId", videoID)
	return respond(ctx, w, http.StatusOK, struct{}{}, "Video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	videoID, err := pathID(r, "videoId", "video Id")
	if err != nil {
		return err
	}
	id, err := requireIdentity(r)
	if err != nil {
		return err
	}

	if _, err := h.ownedVideo(r, videoID, id, "change the publish status of this video"); err != nil {
		return err
	}

	video, err := h.Videos.TogglePublished(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound("Video not found")
		}
		return err
	}

	message := "Video unpublished successfully"
	if video.IsPublished {
		message = "Video published successfully"
	}
	return respond(ctx, w, http.StatusOK, video, message)
}

// ownedVideo loads a video and checks that the caller owns it.
func (h VideoHandler) ownedVideo(r *http.Request, videoID uuid.UUID, id auth.Identity, action string) (models.Video, error) {
	video, err := h.Videos.FindByID(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, notFound("Video not found")
		}
		return models.Video{}, err
	}
	if err := requireOwner(video, id, action); err != nil {
		return models.Video{}, err
	}
	return video, nil
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc().UTC()
	}
	return time.Now().UTC()
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// queryInt parses a positive integer query parameter, returning fallback otherwise.
func queryInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
