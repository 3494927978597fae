package models

import (
	"time"

	"github.com/google/uuid"
)

// OwnerSummary is the public slice of a user embedded in read models.
type OwnerSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	FullName string    `json:"fullName"`
	Avatar   string    `json:"avatar"`
}

// VideoView is a video joined with its owner.
type VideoView struct {
	Video
	Owner OwnerSummary `json:"owner"`
}

// ChannelProfile is the public page of a user with subscription counts.
type ChannelProfile struct {
	ID                        uuid.UUID `json:"id"`
	Username                  string    `json:"username"`
	FullName                  string    `json:"fullName"`
	Email                     string    `json:"email"`
	Avatar                    string    `json:"avatar"`
	CoverImage                string    `json:"coverImage"`
	SubscribersCount          int64     `json:"subscribersCount"`
	ChannelsSubscribedToCount int64     `json:"channelsSubscribedToCount"`
	IsSubscribed              bool      `json:"isSubscribed"`
}

// LatestVideo is the trimmed video shown next to a subscribed channel.
type LatestVideo struct {
	ID          uuid.UUID `json:"id"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	OwnerID     uuid.UUID `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SubscribedChannel is a channel the subscriber follows, with its newest upload.
type SubscribedChannel struct {
	ID          uuid.UUID    `json:"id"`
	Username    string       `json:"username"`
	FullName    string       `json:"fullName"`
	Avatar      string       `json:"avatar"`
	LatestVideo *LatestVideo `json:"latestVideo,omitempty"`
}

// SubscriptionView wraps a subscription row with the followed channel.
type SubscriptionView struct {
	ID                uuid.UUID         `json:"id"`
	SubscribedChannel SubscribedChannel `json:"subscribedChannel"`
}

// TweetView is a tweet with like information relative to the viewer.
type TweetView struct {
	ID                   uuid.UUID    `json:"id"`
	Content              string       `json:"content"`
	Owner                OwnerSummary `json:"owner"`
	LikesCount           int64        `json:"likesCount"`
	IsLikedByCurrentUser bool         `json:"isLikedByCurrentUser"`
	CreatedAt            time.Time    `json:"createdAt"`
}

// CommentView is a comment with its author and like count.
type CommentView struct {
	ID         uuid.UUID    `json:"id"`
	Content    string       `json:"content"`
	VideoID    uuid.UUID    `json:"video"`
	Owner      OwnerSummary `json:"owner"`
	LikesCount int64        `json:"likesCount"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// LikedVideo is a video the viewer liked.
type LikedVideo struct {
	VideoView
	LikedAt time.Time `json:"likedAt"`
}

// WatchedVideo is an entry of a user's watch history.
type WatchedVideo struct {
	VideoView
	WatchedAt time.Time `json:"watchedAt"`
}

// VideoQuery narrows and orders the public video listing.
type VideoQuery struct {
	Page     int
	Limit    int
	Search   string
	SortBy   string
	SortDesc bool
	OwnerID  uuid.UUID
}

// Page is a slice of results with pagination metadata.
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}
