package handlers

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// memoryDB backs every store fake so aggregate reads can join across them.
type memoryDB struct {
	mu            sync.Mutex
	users         map[uuid.UUID]models.User
	videos        map[uuid.UUID]models.Video
	comments      map[uuid.UUID]models.Comment
	tweets        map[uuid.UUID]models.Tweet
	likes         map[likeKey]time.Time
	subscriptions map[[2]uuid.UUID]uuid.UUID
	history       map[uuid.UUID][]uuid.UUID

	failVideoCreate error
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		users:         make(map[uuid.UUID]models.User),
		videos:        make(map[uuid.UUID]models.Video),
		comments:      make(map[uuid.UUID]models.Comment),
		tweets:        make(map[uuid.UUID]models.Tweet),
		likes:         make(map[likeKey]time.Time),
		subscriptions: make(map[[2]uuid.UUID]uuid.UUID),
		history:       make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *memoryDB) summary(id uuid.UUID) models.OwnerSummary {
	u := m.users[id]
	return models.OwnerSummary{ID: u.ID, Username: u.Username, FullName: u.FullName, Avatar: u.Avatar}
}

// latestVideo returns the owner's newest upload, published or not.
func (m *memoryDB) latestVideo(owner uuid.UUID) *models.LatestVideo {
	var latest *models.Video
	for _, v := range m.videos {
		if v.OwnerID != owner {
			continue
		}
		if latest == nil || v.CreatedAt.After(latest.CreatedAt) {
			latest = &v
		}
	}
	if latest == nil {
		return nil
	}
	return &models.LatestVideo{
		ID: latest.ID, VideoFile: latest.VideoFile, Thumbnail: latest.Thumbnail, OwnerID: latest.OwnerID,
		Title: latest.Title, Description: latest.Description, Duration: latest.Duration, Views: latest.Views,
		CreatedAt: latest.CreatedAt,
	}
}

type likeKey struct {
	target   models.LikeTarget
	targetID uuid.UUID
	userID   uuid.UUID
}

// memoryUsers satisfies both the handler and session manager user stores.
type memoryUsers struct{ *memoryDB }

func (s memoryUsers) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s memoryUsers) FindByID(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return u, nil
}

func (s memoryUsers) FindByIdentifier(_ context.Context, username, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s memoryUsers) mutate(id uuid.UUID, fn func(*models.User) error) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	if err := fn(&u); err != nil {
		return models.User{}, err
	}
	s.users[id] = u
	return u, nil
}

func (s memoryUsers) SetRefreshToken(_ context.Context, id uuid.UUID, token string) error {
	_, err := s.mutate(id, func(u *models.User) error { u.RefreshToken = token; return nil })
	return err
}

func (s memoryUsers) RotateRefreshToken(_ context.Context, id uuid.UUID, current, next string) error {
	_, err := s.mutate(id, func(u *models.User) error {
		if u.RefreshToken != current {
			return repositories.ErrNotFound
		}
		u.RefreshToken = next
		return nil
	})
	return err
}

func (s memoryUsers) ClearRefreshToken(_ context.Context, id uuid.UUID) error {
	_, err := s.mutate(id, func(u *models.User) error { u.RefreshToken = ""; return nil })
	return err
}

func (s memoryUsers) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	_, err := s.mutate(id, func(u *models.User) error { u.Password = hash; return nil })
	return err
}

func (s memoryUsers) UpdateAccount(_ context.Context, id uuid.UUID, fullName, email string) (models.User, error) {
	s.mu.Lock()
	for _, u := range s.users {
		if u.ID != id && u.Email == email {
			s.mu.Unlock()
			return models.User{}, repositories.ErrConflict
		}
	}
	s.mu.Unlock()
	return s.mutate(id, func(u *models.User) error { u.FullName, u.Email = fullName, email; return nil })
}

func (s memoryUsers) UpdateAvatar(_ context.Context, id uuid.UUID, url string) (models.User, error) {
	return s.mutate(id, func(u *models.User) error { u.Avatar = url; return nil })
}

func (s memoryUsers) UpdateCoverImage(_ context.Context, id uuid.UUID, url string) (models.User, error) {
	return s.mutate(id, func(u *models.User) error { u.CoverImage = url; return nil })
}

func (s memoryUsers) ChannelProfile(_ context.Context, username string, viewer uuid.UUID) (models.ChannelProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username != username {
			continue
		}
		p := models.ChannelProfile{ID: u.ID, Username: u.Username, FullName: u.FullName, Email: u.Email,
			Avatar: u.Avatar, CoverImage: u.CoverImage}
		for pair := range s.subscriptions {
			if pair[1] == u.ID {
				p.SubscribersCount++
				if pair[0] == viewer {
					p.IsSubscribed = true
				}
			}
			if pair[0] == u.ID {
				p.ChannelsSubscribedToCount++
			}
		}
		return p, nil
	}
	return models.ChannelProfile{}, repositories.ErrNotFound
}

func (s memoryUsers) RecordWatch(_ context.Context, userID, videoID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []uuid.UUID{videoID}
	for _, id := range s.history[userID] {
		if id != videoID {
			list = append(list, id)
		}
	}
	s.history[userID] = list
	return nil
}

func (s memoryUsers) WatchHistory(_ context.Context, userID uuid.UUID) ([]models.WatchedVideo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.WatchedVideo{}
	for _, id := range s.history[userID] {
		if v, ok := s.videos[id]; ok {
			out = append(out, models.WatchedVideo{VideoView: models.VideoView{Video: v, Owner: s.summary(v.OwnerID)}})
		}
	}
	return out, nil
}

type memoryVideos struct{ *memoryDB }

func (s memoryVideos) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failVideoCreate != nil {
		return s.failVideoCreate
	}
	s.videos[video.ID] = video
	return nil
}

func (s memoryVideos) FindByID(_ context.Context, id uuid.UUID) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return v, nil
}

func (s memoryVideos) FindView(ctx context.Context, id uuid.UUID) (models.VideoView, error) {
	v, err := s.FindByID(ctx, id)
	if err != nil {
		return models.VideoView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.VideoView{Video: v, Owner: s.summary(v.OwnerID)}, nil
}

func (s memoryVideos) mutate(id uuid.UUID, fn func(*models.Video)) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	fn(&v)
	s.videos[id] = v
	return v, nil
}

func (s memoryVideos) Update(_ context.Context, video models.Video) (models.Video, error) {
	return s.mutate(video.ID, func(v *models.Video) {
		v.Title, v.Description, v.Thumbnail = video.Title, video.Description, video.Thumbnail
	})
}

func (s memoryVideos) TogglePublished(_ context.Context, id uuid.UUID) (models.Video, error) {
	return s.mutate(id, func(v *models.Video) { v.IsPublished = !v.IsPublished })
}

func (s memoryVideos) IncrementViews(_ context.Context, id uuid.UUID) error {
	_, err := s.mutate(id, func(v *models.Video) { v.Views++ })
	return err
}

func (s memoryVideos) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s memoryVideos) ListPublished(_ context.Context, q models.VideoQuery) (models.Page[models.VideoView], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := models.Page[models.VideoView]{Items: []models.VideoView{}, Page: q.Page, Limit: q.Limit}
	for _, v := range s.videos {
		if !v.IsPublished || (q.OwnerID != uuid.Nil && v.OwnerID != q.OwnerID) {
			continue
		}
		page.Items = append(page.Items, models.VideoView{Video: v, Owner: s.summary(v.OwnerID)})
	}
	sort.Slice(page.Items, func(i, j int) bool { return page.Items[i].CreatedAt.After(page.Items[j].CreatedAt) })
	page.Total = len(page.Items)
	return page, nil
}

type memoryComments struct{ *memoryDB }

func (s memoryComments) Create(_ context.Context, c models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[c.ID] = c
	return nil
}

func (s memoryComments) FindByID(_ context.Context, id uuid.UUID) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return c, nil
}

func (s memoryComments) UpdateContent(_ context.Context, id uuid.UUID, content string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	c.Content = content
	s.comments[id] = c
	return c, nil
}

func (s memoryComments) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s memoryComments) ListForVideo(_ context.Context, videoID uuid.UUID, page, limit int) (models.Page[models.CommentView], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := models.Page[models.CommentView]{Items: []models.CommentView{}, Page: page, Limit: limit}
	for _, c := range s.comments {
		if c.VideoID == videoID {
			out.Items = append(out.Items, models.CommentView{ID: c.ID, Content: c.Content, VideoID: c.VideoID,
				Owner: s.summary(c.OwnerID), CreatedAt: c.CreatedAt})
		}
	}
	out.Total = len(out.Items)
	return out, nil
}

type memoryTweets struct{ *memoryDB }

func (s memoryTweets) Create(_ context.Context, t models.Tweet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tweets[t.ID] = t
	return nil
}

func (s memoryTweets) FindByID(_ context.Context, id uuid.UUID) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return t, nil
}

func (s memoryTweets) UpdateContent(_ context.Context, id uuid.UUID, content string) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	t.Content = content
	s.tweets[id] = t
	return t, nil
}

func (s memoryTweets) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}

func (s memoryTweets) ListForUser(_ context.Context, owner, viewer uuid.UUID) ([]models.TweetView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.TweetView{}
	for _, t := range s.tweets {
		if t.OwnerID != owner {
			continue
		}
		view := models.TweetView{ID: t.ID, Content: t.Content, Owner: s.summary(owner), CreatedAt: t.CreatedAt}
		for key := range s.likes {
			if key.target == models.LikeTargetTweet && key.targetID == t.ID {
				view.LikesCount++
			}
		}
		_, view.IsLikedByCurrentUser = s.likes[likeKey{models.LikeTargetTweet, t.ID, viewer}]
		out = append(out, view)
	}
	return out, nil
}

type memoryLikes struct{ *memoryDB }

func (s memoryLikes) Toggle(_ context.Context, target models.LikeTarget, targetID, userID uuid.UUID) (bool, error) {
	if !target.Valid() {
		return false, errors.New("unknown like target")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := likeKey{target, targetID, userID}
	if _, ok := s.likes[key]; ok {
		delete(s.likes, key)
		return false, nil
	}
	s.likes[key] = time.Now()
	return true, nil
}

func (s memoryLikes) LikedVideos(_ context.Context, userID uuid.UUID) ([]models.LikedVideo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.LikedVideo{}
	for id, v := range s.videos {
		if at, ok := s.likes[likeKey{models.LikeTargetVideo, id, userID}]; ok {
			out = append(out, models.LikedVideo{VideoView: models.VideoView{Video: v, Owner: s.summary(v.OwnerID)}, LikedAt: at})
		}
	}
	return out, nil
}

type memorySubscriptions struct{ *memoryDB }

func (s memorySubscriptions) Toggle(_ context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := [2]uuid.UUID{subscriberID, channelID}
	if _, ok := s.subscriptions[pair]; ok {
		delete(s.subscriptions, pair)
		return false, nil
	}
	s.subscriptions[pair] = uuid.New()
	return true, nil
}

func (s memorySubscriptions) CountSubscribers(_ context.Context, channelID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for pair := range s.subscriptions {
		if pair[1] == channelID {
			n++
		}
	}
	return n, nil
}

func (s memorySubscriptions) SubscribedChannels(_ context.Context, subscriberID uuid.UUID) ([]models.SubscriptionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.SubscriptionView{}
	for pair, id := range s.subscriptions {
		if pair[0] != subscriberID {
			continue
		}
		owner := s.summary(pair[1])
		out = append(out, models.SubscriptionView{ID: id, SubscribedChannel: models.SubscribedChannel{
			ID: owner.ID, Username: owner.Username, FullName: owner.FullName, Avatar: owner.Avatar,
			LatestVideo: s.latestVideo(pair[1]),
		}})
	}
	return out, nil
}

func (s memorySubscriptions) Subscribers(_ context.Context, channelID uuid.UUID) ([]models.OwnerSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.OwnerSummary{}
	for pair := range s.subscriptions {
		if pair[1] == channelID {
			out = append(out, s.summary(pair[0]))
		}
	}
	return out, nil
}
