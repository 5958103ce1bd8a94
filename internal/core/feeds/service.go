package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"skyframe/internal/core/moderation"
	"skyframe/internal/core/posts"
)

// trendingTagCount is how many hashtags the discovery surfaces return
const trendingTagCount = 7

type feedService struct {
	gw       Gateway
	hydrator EdgeHydrator // optional
	logger   *slog.Logger

	feedEngine   *Engine[posts.FeedItem]
	searchEngine *Engine[posts.Post]
	notifEngine  *Engine[posts.Notification]
}

// NewService creates the feed service. The hydrator may be nil; when set,
// viewer state from every observed post is pushed into it.
func NewService(gw Gateway, hydrator EdgeHydrator, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}

	// Feeds and search are image-only surfaces and both pass through the
	// moderation predicate. Notifications are shown unfiltered.
	feedSafe := func(item posts.FeedItem) bool {
		return item.Post.HasImages() && moderation.IsSafeFeedItem(item)
	}
	searchSafe := func(p posts.Post) bool {
		return p.HasImages() && moderation.IsSafePost(p)
	}

	return &feedService{
		gw:           gw,
		hydrator:     hydrator,
		logger:       logger,
		feedEngine:   NewEngine(posts.FeedItem.Key, feedSafe, logger),
		searchEngine: NewEngine(posts.Post.Key, searchSafe, logger),
		notifEngine:  NewEngine(posts.Notification.Key, nil, logger),
	}
}

// feedFetcher selects the upstream call for a feed query
func (s *feedService) feedFetcher(q FeedQuery) Fetcher[posts.FeedItem] {
	return func(ctx context.Context, cursor string) ([]posts.FeedItem, string, error) {
		switch q.Kind {
		case KindTimeline:
			return s.gw.GetTimeline(ctx, pageSize, cursor)
		case KindDiscover:
			return s.gw.GetFeed(ctx, whatsHotFeedURI, pageSize, cursor)
		case KindAuthor:
			return s.gw.GetAuthorFeed(ctx, q.Actor, pageSize, cursor)
		default:
			return nil, "", fmt.Errorf("unknown feed kind %q", q.Kind)
		}
	}
}

func (s *feedService) RefreshFeed(ctx context.Context, q FeedQuery) (Page[posts.FeedItem], error) {
	page, err := s.feedEngine.LoadFirst(ctx, q.Key(), s.feedFetcher(q))
	if err != nil {
		return page, err
	}
	s.hydrateFeed(page.Items)
	return page, nil
}

func (s *feedService) MoreFeed(ctx context.Context, q FeedQuery, current []posts.FeedItem, cursor string) (Page[posts.FeedItem], error) {
	page, err := s.feedEngine.LoadNext(ctx, q.Key(), current, cursor, s.feedFetcher(q))
	if err != nil {
		return page, err
	}
	s.hydrateFeed(page.Items[len(current):])
	return page, nil
}

func (s *feedService) searchFetcher(term string) Fetcher[posts.Post] {
	return func(ctx context.Context, cursor string) ([]posts.Post, string, error) {
		return s.gw.SearchPosts(ctx, term, pageSize, cursor)
	}
}

func (s *feedService) RefreshSearch(ctx context.Context, term string) (Page[posts.Post], error) {
	page, err := s.searchEngine.LoadFirst(ctx, "search:"+term, s.searchFetcher(term))
	if err != nil {
		return page, err
	}
	s.hydratePosts(page.Items)
	return page, nil
}

func (s *feedService) MoreSearch(ctx context.Context, term string, current []posts.Post, cursor string) (Page[posts.Post], error) {
	page, err := s.searchEngine.LoadNext(ctx, "search:"+term, current, cursor, s.searchFetcher(term))
	if err != nil {
		return page, err
	}
	s.hydratePosts(page.Items[len(current):])
	return page, nil
}

// RelatedPosts reuses post search with a hashtag query, the same
// discovery the post-detail screen offers
func (s *feedService) RelatedPosts(ctx context.Context, hashtag string) (Page[posts.Post], error) {
	if !moderation.IsSafeHashtag(hashtag) {
		return Page[posts.Post]{}, nil
	}
	return s.RefreshSearch(ctx, "#"+hashtag)
}

func (s *feedService) notifFetcher() Fetcher[posts.Notification] {
	return func(ctx context.Context, cursor string) ([]posts.Notification, string, error) {
		return s.gw.ListNotifications(ctx, pageSize, cursor)
	}
}

func (s *feedService) RefreshNotifications(ctx context.Context) (Page[posts.Notification], error) {
	return s.notifEngine.LoadFirst(ctx, "notifications", s.notifFetcher())
}

func (s *feedService) MoreNotifications(ctx context.Context, current []posts.Notification, cursor string) (Page[posts.Notification], error) {
	return s.notifEngine.LoadNext(ctx, "notifications", current, cursor, s.notifFetcher())
}

// TrendingHashtags counts hashtags over one 50-post discover window
func (s *feedService) TrendingHashtags(ctx context.Context) ([]string, error) {
	items, _, err := s.gw.GetFeed(ctx, whatsHotFeedURI, 50, "")
	if err != nil {
		return nil, fmt.Errorf("failed to sample discover feed: %w", err)
	}
	return topHashtags(items, trendingTagCount), nil
}

// PopularCategories counts hashtags over up to three 100-post discover
// windows, following the feed cursor between samples
func (s *feedService) PopularCategories(ctx context.Context) ([]string, error) {
	var all []posts.FeedItem
	cursor := ""

	for i := 0; i < 3; i++ {
		items, next, err := s.gw.GetFeed(ctx, whatsHotFeedURI, 100, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to sample discover feed: %w", err)
		}
		all = append(all, items...)
		if next == "" {
			break
		}
		cursor = next
	}

	return topHashtags(all, trendingTagCount), nil
}

// topHashtags tallies safe hashtags across feed items and returns the n
// most frequent, ties broken alphabetically for stable output
func topHashtags(items []posts.FeedItem, n int) []string {
	counts := make(map[string]int)
	for _, item := range items {
		for _, tag := range moderation.ExtractHashtags(item.Post.Text) {
			if moderation.IsSafeHashtag(tag) {
				counts[tag]++
			}
		}
	}

	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})

	if len(tags) > n {
		tags = tags[:n]
	}
	return tags
}

// hydrateFeed pushes viewer state for newly observed feed items
func (s *feedService) hydrateFeed(items []posts.FeedItem) {
	if s.hydrator == nil {
		return
	}
	for _, item := range items {
		s.hydrator.HydratePost(item.Post)
	}
}

// hydratePosts pushes viewer state for newly observed posts
func (s *feedService) hydratePosts(ps []posts.Post) {
	if s.hydrator == nil {
		return
	}
	for _, p := range ps {
		s.hydrator.HydratePost(p)
	}
}
