package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vidtube/backend/internal/middleware"
)

const apiPrefix = "/api/v1"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users          UserStore
	Sessions       SessionManager
	Videos         VideoStore
	Comments       CommentStore
	Tweets         TweetStore
	Likes          LikeStore
	Subscriptions  SubscriptionStore
	Media          MediaHost
	Database       Pinger
	AuthLimiter    middleware.RateLimiter
	Gatherer       prometheus.Gatherer
	Cookies        CookieConfig
	MaxUploadBytes int64

	// TrustForwardedFor lets the auth limiter key on X-Forwarded-For.
	TrustForwardedFor bool
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Database: deps.Database}
	authH := AuthHandler{
		Users:          deps.Users,
		Sessions:       deps.Sessions,
		Media:          deps.Media,
		Cookies:        deps.Cookies,
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	users := UserHandler{Users: deps.Users, Media: deps.Media, MaxUploadBytes: deps.MaxUploadBytes}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Media: deps.Media, MaxUploadBytes: deps.MaxUploadBytes}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos}
	tweets := TweetHandler{Tweets: deps.Tweets}
	likes := LikeHandler{Likes: deps.Likes}
	subs := SubscriptionHandler{Subscriptions: deps.Subscriptions}

	required := middleware.Authenticate(deps.Sessions)
	optional := middleware.OptionalAuthenticate(deps.Sessions)
	limited := middleware.RateLimit(deps.AuthLimiter, "auth", deps.TrustForwardedFor)

	public := func(pattern string, fn handlerFunc) {
		mux.Handle(route(pattern), handle(fn))
	}
	private := func(pattern string, fn handlerFunc) {
		mux.Handle(route(pattern), required(handle(fn)))
	}
	personal := func(pattern string, fn handlerFunc) {
		mux.Handle(route(pattern), optional(handle(fn)))
	}
	throttled := func(pattern string, fn handlerFunc) {
		mux.Handle(route(pattern), limited(handle(fn)))
	}

	mux.HandleFunc("GET /healthz", health.Handle)
	if deps.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	throttled("POST /users/register", authH.Register)
	throttled("POST /users/login", authH.Login)
	throttled("POST /users/refresh-token", authH.RefreshToken)
	private("POST /users/logout", authH.Logout)
	private("POST /users/change-password", authH.ChangePassword)
	private("GET /users/current-user", users.CurrentUser)
	private("PATCH /users/update-account", users.UpdateAccount)
	private("PATCH /users/avatar", users.UpdateAvatar)
	private("PATCH /users/cover-image", users.UpdateCoverImage)
	personal("GET /users/c/{username}", users.ChannelProfile)
	private("GET /users/history", users.WatchHistory)

	personal("GET /videos", videos.List)
	private("POST /videos/video", videos.Publish)
	personal("GET /videos/{videoId}", videos.Get)
	private("PATCH /videos/update/{videoId}", videos.Update)
	private("POST /videos/delete/{videoId}", videos.Delete)
	private("PATCH /videos/toggle/{videoId}", videos.TogglePublish)

	public("GET /comments/{videoId}", comments.List)
	private("POST /comments/add/{videoId}", comments.Add)
	private("PATCH /comments/update/{commentId}", comments.Update)
	private("POST /comments/delete/{commentId}", comments.Delete)

	private("POST /tweets/create", tweets.Create)
	private("GET /tweets/{userId}", tweets.ListForUser)
	private("PATCH /tweets/update/{tweetId}", tweets.Update)
	private("POST /tweets/delete/{tweetId}", tweets.Delete)

	private("POST /likes/toggle/v/{videoId}", likes.ToggleVideo)
	private("POST /likes/toggle/c/{commentId}", likes.ToggleComment)
	private("POST /likes/toggle/t/{tweetId}", likes.ToggleTweet)
	private("GET /likes/videos", likes.LikedVideos)

	private("PATCH /subscriptions/{channelId}", subs.Toggle)
	public("GET /subscriptions/subcount/{channelId}", subs.Count)
	public("GET /subscriptions/subscribed/{subscriberId}", subs.SubscribedChannels)
	public("GET /subscriptions/c/{channelId}", subs.Subscribers)
}

// route prefixes the path of a "METHOD /path" pattern with the API base.
func route(pattern string) string {
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == ' ' {
			return pattern[:i+1] + apiPrefix + pattern[i+1:]
		}
	}
	return apiPrefix + pattern
}
