// Package gateway wraps the Bluesky API (app.bsky.* queries and
// com.atproto.repo.* record mutations) behind a single authenticated
// client. Every call requires an active session and fails fast with
// session.ErrAuthenticationRequired before touching the network.
package gateway

import (
	"context"

	"skyframe/internal/core/posts"
	"skyframe/internal/core/profiles"
)

// Client is the full gateway surface. Core services depend on narrow
// consumer-defined subsets of this interface, not on the concrete type.
type Client interface {
	// GetTimeline returns the authenticated user's home timeline
	GetTimeline(ctx context.Context, limit int64, cursor string) ([]posts.FeedItem, string, error)

	// GetFeed returns a feed generator's output (e.g. What's Hot)
	GetFeed(ctx context.Context, feedURI string, limit int64, cursor string) ([]posts.FeedItem, string, error)

	// SearchPosts runs a full-text post search
	SearchPosts(ctx context.Context, query string, limit int64, cursor string) ([]posts.Post, string, error)

	// GetAuthorFeed returns posts authored by an actor (handle or DID)
	GetAuthorFeed(ctx context.Context, actor string, limit int64, cursor string) ([]posts.FeedItem, string, error)

	// GetProfile returns a detailed actor view including viewer state
	GetProfile(ctx context.Context, actor string) (*profiles.Profile, error)

	// ListNotifications returns the authenticated user's notifications
	ListNotifications(ctx context.Context, limit int64, cursor string) ([]posts.Notification, string, error)

	// GetPosts hydrates up to 25 post URIs in one call. URIs that no
	// longer resolve are absent from the result, not errors.
	GetPosts(ctx context.Context, uris []string) ([]posts.Post, error)

	// Follow creates a follow record for the DID and returns its URI
	Follow(ctx context.Context, did string) (string, error)

	// DeleteFollow removes a follow record by its URI
	DeleteFollow(ctx context.Context, followURI string) error

	// Like creates a like record against a post and returns its URI
	Like(ctx context.Context, uri, cid string) (string, error)

	// DeleteLike removes a like record by its URI
	DeleteLike(ctx context.Context, likeURI string) error

	// Repost creates a repost record against a post and returns its URI
	Repost(ctx context.Context, uri, cid string) (string, error)

	// DeleteRepost removes a repost record by its URI
	DeleteRepost(ctx context.Context, repostURI string) error
}
