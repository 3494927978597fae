package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
)

// UserStore captures the account persistence required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (models.User, error)
	FindByIdentifier(ctx context.Context, username, email string) (models.User, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, url string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id uuid.UUID, url string) (models.User, error)
	ChannelProfile(ctx context.Context, username string, viewer uuid.UUID) (models.ChannelProfile, error)
	RecordWatch(ctx context.Context, userID, videoID uuid.UUID) error
	WatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchedVideo, error)
}

// SessionManager runs the session lifecycle on behalf of the auth handlers.
type SessionManager interface {
	Login(ctx context.Context, username, email, password string) (models.User, models.SessionTokens, error)
	Logout(ctx context.Context, id auth.Identity) error
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	HashPassword(password string) (string, error)
	Authenticate(ctx context.Context, accessToken string) (auth.Identity, error)
}

// VideoStore captures persistence for videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id uuid.UUID) (models.Video, error)
	FindView(ctx context.Context, id uuid.UUID) (models.VideoView, error)
	Update(ctx context.Context, video models.Video) (models.Video, error)
	TogglePublished(ctx context.Context, id uuid.UUID) (models.Video, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListPublished(ctx context.Context, q models.VideoQuery) (models.Page[models.VideoView], error)
}

// CommentStore captures persistence for video comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id uuid.UUID) (models.Comment, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string) (models.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListForVideo(ctx context.Context, videoID uuid.UUID, page, limit int) (models.Page[models.CommentView], error)
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id uuid.UUID) (models.Tweet, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string) (models.Tweet, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListForUser(ctx context.Context, owner, viewer uuid.UUID) ([]models.TweetView, error)
}

// LikeStore toggles likes and lists liked videos.
type LikeStore interface {
	Toggle(ctx context.Context, target models.LikeTarget, targetID, userID uuid.UUID) (bool, error)
	LikedVideos(ctx context.Context, userID uuid.UUID) ([]models.LikedVideo, error)
}

// SubscriptionStore toggles subscriptions and serves their aggregate reads.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
	CountSubscribers(ctx context.Context, channelID uuid.UUID) (int64, error)
	SubscribedChannels(ctx context.Context, subscriberID uuid.UUID) ([]models.SubscriptionView, error)
	Subscribers(ctx context.Context, channelID uuid.UUID) ([]models.OwnerSummary, error)
}

// MediaHost uploads and removes media assets.
type MediaHost interface {
	NewBatch() *media.Batch
	Probe(ctx context.Context, path string) (float64, error)
	Remove(ctx context.Context, urls ...string)
}
