// Package httpapi exposes the REST surface. Handlers parse and validate the
// transport, delegate to the services, and wrap every reply in the shared
// response envelope.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/clipstream/clipstream/internal/app"
	"github.com/clipstream/clipstream/internal/config"
	"github.com/clipstream/clipstream/internal/metrics"
	"github.com/clipstream/clipstream/internal/middleware"
	"github.com/clipstream/clipstream/pkg/logger"
)

// Handler bundles the HTTP endpoints over the application services.
type Handler struct {
	app           *app.Application
	log           *logger.Logger
	secureCookies bool
}

// NewRouter builds the full routing tree with the middleware chain applied.
func NewRouter(application *app.Application, cfg config.ServerConfig, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &Handler{app: application, log: log, secureCookies: cfg.SecureCookies}

	auth := middleware.NewAuthenticator(application.Issuer, application.Stores.Users, log)
	cors := middleware.NewCORS(cfg.CORSOrigins)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)

	r := chi.NewRouter()
	r.Use(metrics.InstrumentHandler)
	r.Use(chimw.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}
	r.Use(cors.Handler)
	r.Use(limiter.Handler)

	r.Get("/healthcheck", h.healthcheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/refresh-token", h.refreshToken)

			r.Group(func(r chi.Router) {
				r.Use(auth.Require)
				r.Get("/logout", h.logout)
				r.Post("/logout", h.logout)
				r.Post("/change-password", h.changePassword)
				r.Get("/current-user", h.currentUser)
				r.Patch("/update-account", h.updateAccount)
				r.Patch("/update-avatar", h.updateAvatar)
				r.Patch("/update-coverImage", h.updateCoverImage)
				r.Post("/channel/{username}", h.channelProfile)
				r.Get("/channel/{username}", h.channelProfile)
				r.Get("/watchHistory", h.watchHistory)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Require)

			r.Route("/videos", func(r chi.Router) {
				r.Get("/", h.listVideos)
				r.Post("/", h.publishVideo)
				r.Get("/{videoId}", h.getVideo)
				r.Patch("/{videoId}", h.updateVideo)
				r.Delete("/{videoId}", h.deleteVideo)
				r.Patch("/toggle/publish/{videoId}", h.togglePublish)
			})

			r.Route("/comments", func(r chi.Router) {
				r.Get("/{videoId}", h.listComments)
				r.Post("/{videoId}", h.addComment)
				r.Patch("/c/{commentId}", h.updateComment)
				r.Delete("/c/{commentId}", h.deleteComment)
			})

			r.Route("/likes", func(r chi.Router) {
				r.Post("/toggle/v/{videoId}", h.toggleVideoLike)
				r.Post("/toggle/c/{commentId}", h.toggleCommentLike)
				r.Post("/toggle/t/{tweetId}", h.toggleTweetLike)
				r.Get("/videos", h.likedVideos)
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Post("/channel/{channelId}", h.toggleSubscription)
				r.Get("/channel/{channelId}", h.channelSubscribers)
				r.Get("/user/{subscriberId}", h.subscribedChannels)
			})

			r.Route("/playlists", func(r chi.Router) {
				r.Post("/", h.createPlaylist)
				r.Get("/{playlistId}", h.getPlaylist)
				r.Patch("/{playlistId}", h.updatePlaylist)
				r.Delete("/{playlistId}", h.deletePlaylist)
				r.Patch("/add/{videoId}/{playlistId}", h.addPlaylistVideo)
				r.Patch("/remove/{videoId}/{playlistId}", h.removePlaylistVideo)
				r.Get("/user/{userId}", h.userPlaylists)
			})

			r.Route("/tweets", func(r chi.Router) {
				r.Post("/", h.createTweet)
				r.Get("/user/{userId}", h.userTweets)
				r.Patch("/{tweetId}", h.updateTweet)
				r.Delete("/{tweetId}", h.deleteTweet)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/stats", h.dashboardStats)
				r.Get("/videos", h.dashboardVideos)
			})
		})
	})

	return r
}

func (h *Handler) healthcheck(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"}, "service is healthy")
}
