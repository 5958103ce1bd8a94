package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"skyframe/internal/api/handlers/feed"
	"skyframe/internal/api/middleware"
	"skyframe/internal/core/feeds"
)

// RegisterFeedRoutes registers feed, search, notification and hashtag
// endpoints on the router. All of them proxy an authenticated Bluesky
// session, so every route requires the device cookie.
func RegisterFeedRoutes(r chi.Router, service feeds.Service, auth *middleware.CookieAuth, logger *slog.Logger) {
	handler := feed.NewHandler(service, logger)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		// Home timeline, cursor-paginated
		r.Get("/api/feeds/timeline", handler.HandleTimeline)

		// What's Hot discovery feed, image-only
		r.Get("/api/feeds/discover", handler.HandleDiscover)

		// An actor's media posts
		r.Get("/api/actors/{actor}/feed", handler.HandleAuthorFeed)

		// Full-text post search, image-only
		r.Get("/api/search", handler.HandleSearch)

		// Notification inbox
		r.Get("/api/notifications", handler.HandleNotifications)

		// Posts related to a hashtag
		r.Get("/api/tags/{tag}/posts", handler.HandleRelated)

		// Trending hashtags mined from the discovery feed
		r.Get("/api/tags/trending", handler.HandleTrending)

		// Popular hashtags mined from a deeper sample of the discovery feed
		r.Get("/api/tags/popular", handler.HandlePopular)
	})
}
