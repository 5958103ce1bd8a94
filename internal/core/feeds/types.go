package feeds

import (
	"context"

	"skyframe/internal/core/posts"
)

// whatsHotFeedURI is the discover feed generator the app browses
const whatsHotFeedURI = "at://did:plc:z72i7hdynmk6r22z27h6tvur/app.bsky.feed.generator/whats-hot"

// pageSize is the request size for all paginated queries. Filtering can
// shrink the page the caller sees; filtered-out items never count.
const pageSize = 30

// FeedKind selects a feed-shaped source
type FeedKind string

const (
	KindTimeline FeedKind = "timeline"
	KindDiscover FeedKind = "discover"
	KindAuthor   FeedKind = "author"
)

// FeedQuery identifies one feed-shaped query. Actor is set only for
// KindAuthor. Cursors are valid only for the query key that issued them.
type FeedQuery struct {
	Kind  FeedKind
	Actor string
}

// Key returns the query key used for cursor scoping and load serialization
func (q FeedQuery) Key() string {
	if q.Kind == KindAuthor {
		return string(q.Kind) + ":" + q.Actor
	}
	return string(q.Kind)
}

// Gateway is the subset of the Bluesky API surface the feed service needs
type Gateway interface {
	GetTimeline(ctx context.Context, limit int64, cursor string) ([]posts.FeedItem, string, error)
	GetFeed(ctx context.Context, feedURI string, limit int64, cursor string) ([]posts.FeedItem, string, error)
	GetAuthorFeed(ctx context.Context, actor string, limit int64, cursor string) ([]posts.FeedItem, string, error)
	SearchPosts(ctx context.Context, query string, limit int64, cursor string) ([]posts.Post, string, error)
	ListNotifications(ctx context.Context, limit int64, cursor string) ([]posts.Notification, string, error)
}

// EdgeHydrator seeds interaction state from server-reported viewer flags
// as posts are observed. Implemented by the interactions service.
type EdgeHydrator interface {
	HydratePost(p posts.Post)
}

// Service is the feed/search/notification pagination surface
type Service interface {
	// RefreshFeed loads the first page of a feed query, replacing state
	RefreshFeed(ctx context.Context, q FeedQuery) (Page[posts.FeedItem], error)

	// MoreFeed appends the next page; no-op on empty cursor or when a
	// load for the same query is in flight
	MoreFeed(ctx context.Context, q FeedQuery, current []posts.FeedItem, cursor string) (Page[posts.FeedItem], error)

	// RefreshSearch loads the first page of search results for a term
	RefreshSearch(ctx context.Context, term string) (Page[posts.Post], error)

	// MoreSearch appends the next page of search results
	MoreSearch(ctx context.Context, term string, current []posts.Post, cursor string) (Page[posts.Post], error)

	// RelatedPosts finds posts sharing a hashtag
	RelatedPosts(ctx context.Context, hashtag string) (Page[posts.Post], error)

	// RefreshNotifications loads the first page of notifications
	RefreshNotifications(ctx context.Context) (Page[posts.Notification], error)

	// MoreNotifications appends the next page of notifications
	MoreNotifications(ctx context.Context, current []posts.Notification, cursor string) (Page[posts.Notification], error)

	// TrendingHashtags extracts the most frequent safe hashtags from a
	// single discover page (short window)
	TrendingHashtags(ctx context.Context) ([]string, error)

	// PopularCategories extracts frequent safe hashtags from several
	// discover pages (long window)
	PopularCategories(ctx context.Context) ([]string, error)
}
