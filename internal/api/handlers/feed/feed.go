package feed

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skyframe/internal/core/feeds"
)

// Handler serves the paginated browse surfaces. Cursor-bearing requests
// continue a query; cursorless requests load the first page.
type Handler struct {
	service feeds.Service
	logger  *slog.Logger
}

// NewHandler creates the feed handler
func NewHandler(service feeds.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// HandleTimeline serves the home timeline
// GET /api/feeds/timeline?cursor=...
func (h *Handler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, feeds.FeedQuery{Kind: feeds.KindTimeline})
}

// HandleDiscover serves the What's Hot discover feed
// GET /api/feeds/discover?cursor=...
func (h *Handler) HandleDiscover(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, feeds.FeedQuery{Kind: feeds.KindDiscover})
}

// HandleAuthorFeed serves an actor's posts
// GET /api/actors/{actor}/feed?cursor=...
func (h *Handler) HandleAuthorFeed(w http.ResponseWriter, r *http.Request) {
	actor := chi.URLParam(r, "actor")
	if actor == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "actor is required")
		return
	}
	h.serveFeed(w, r, feeds.FeedQuery{Kind: feeds.KindAuthor, Actor: actor})
}

func (h *Handler) serveFeed(w http.ResponseWriter, r *http.Request, q feeds.FeedQuery) {
	cursor := r.URL.Query().Get("cursor")

	var page any
	var err error
	if cursor == "" {
		page, err = h.service.RefreshFeed(r.Context(), q)
	} else {
		page, err = h.service.MoreFeed(r.Context(), q, nil, cursor)
	}
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleSearch serves post search
// GET /api/search?q=term&cursor=...
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "q is required")
		return
	}
	cursor := r.URL.Query().Get("cursor")

	var page any
	var err error
	if cursor == "" {
		page, err = h.service.RefreshSearch(r.Context(), term)
	} else {
		page, err = h.service.MoreSearch(r.Context(), term, nil, cursor)
	}
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleNotifications serves the inbox
// GET /api/notifications?cursor=...
func (h *Handler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")

	var page any
	var err error
	if cursor == "" {
		page, err = h.service.RefreshNotifications(r.Context())
	} else {
		page, err = h.service.MoreNotifications(r.Context(), nil, cursor)
	}
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleRelated serves posts sharing a hashtag
// GET /api/tags/{tag}/posts
func (h *Handler) HandleRelated(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	if tag == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "tag is required")
		return
	}

	page, err := h.service.RelatedPosts(r.Context(), tag)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleTrending serves short-window trending hashtags
// GET /api/tags/trending
func (h *Handler) HandleTrending(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.TrendingHashtags(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tags": tags})
}

// HandlePopular serves long-window popular hashtag categories
// GET /api/tags/popular
func (h *Handler) HandlePopular(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.PopularCategories(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tags": tags})
}
