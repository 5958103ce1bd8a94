package feeds

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyframe/internal/core/posts"
)

// stubGateway serves canned feed pages keyed by cursor
type stubGateway struct {
	timeline map[string]feedPage
	discover map[string]feedPage
	search   map[string]searchPage

	mu            sync.Mutex
	discoverCalls int
}

type feedPage struct {
	items []posts.FeedItem
	next  string
}

type searchPage struct {
	items []posts.Post
	next  string
}

func (g *stubGateway) GetTimeline(ctx context.Context, limit int64, cursor string) ([]posts.FeedItem, string, error) {
	p := g.timeline[cursor]
	return p.items, p.next, nil
}

func (g *stubGateway) GetFeed(ctx context.Context, feedURI string, limit int64, cursor string) ([]posts.FeedItem, string, error) {
	g.mu.Lock()
	g.discoverCalls++
	g.mu.Unlock()
	p := g.discover[cursor]
	return p.items, p.next, nil
}

func (g *stubGateway) GetAuthorFeed(ctx context.Context, actor string, limit int64, cursor string) ([]posts.FeedItem, string, error) {
	return nil, "", nil
}

func (g *stubGateway) SearchPosts(ctx context.Context, query string, limit int64, cursor string) ([]posts.Post, string, error) {
	p := g.search[cursor]
	return p.items, p.next, nil
}

func (g *stubGateway) ListNotifications(ctx context.Context, limit int64, cursor string) ([]posts.Notification, string, error) {
	return nil, "", nil
}

func imagePost(uri, text string, labels ...string) posts.Post {
	return posts.Post{
		URI:    uri,
		CID:    "bafyreihypothetical",
		Text:   text,
		Images: []posts.ImageEmbed{{Thumb: "t", Fullsize: "f"}},
		Labels: labels,
	}
}

func textPost(uri, text string) posts.Post {
	return posts.Post{URI: uri, Text: text}
}

func feedItems(ps ...posts.Post) []posts.FeedItem {
	items := make([]posts.FeedItem, 0, len(ps))
	for _, p := range ps {
		items = append(items, posts.FeedItem{Post: p})
	}
	return items
}

func TestRefreshFeed_KeepsOnlySafeImagePosts(t *testing.T) {
	gw := &stubGateway{
		timeline: map[string]feedPage{
			"": {
				items: feedItems(
					imagePost("at://p/1", "sunset"),
					textPost("at://p/2", "no images here"),
					imagePost("at://p/3", "nsfw", "porn"),
					imagePost("at://p/4", "mountains"),
				),
				next: "cur1",
			},
		},
	}
	svc := NewService(gw, nil, nil)

	page, err := svc.RefreshFeed(context.Background(), FeedQuery{Kind: KindTimeline})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, "at://p/1", page.Items[0].Post.URI)
	assert.Equal(t, "at://p/4", page.Items[1].Post.URI)
	assert.Equal(t, "cur1", page.Cursor)
}

func TestMoreFeed_AppendsWithoutDuplicates(t *testing.T) {
	gw := &stubGateway{
		timeline: map[string]feedPage{
			"": {
				items: feedItems(imagePost("at://p/1", "a"), imagePost("at://p/2", "b")),
				next:  "cur1",
			},
			"cur1": {
				items: feedItems(imagePost("at://p/2", "b"), imagePost("at://p/3", "c")),
				next:  "",
			},
		},
	}
	svc := NewService(gw, nil, nil)

	q := FeedQuery{Kind: KindTimeline}
	first, err := svc.RefreshFeed(context.Background(), q)
	require.NoError(t, err)

	second, err := svc.MoreFeed(context.Background(), q, first.Items, first.Cursor)
	require.NoError(t, err)

	require.Len(t, second.Items, 3)
	assert.Equal(t, "at://p/3", second.Items[2].Post.URI)
	assert.Empty(t, second.Cursor)
}

func TestRelatedPosts_RejectsBlockedHashtag(t *testing.T) {
	gw := &stubGateway{
		search: map[string]searchPage{
			"": {items: []posts.Post{imagePost("at://p/1", "#art")}},
		},
	}
	svc := NewService(gw, nil, nil)

	page, err := svc.RelatedPosts(context.Background(), "nsfw")
	require.NoError(t, err)
	assert.Empty(t, page.Items, "blocked hashtags yield nothing, no upstream call")

	page, err = svc.RelatedPosts(context.Background(), "art")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
}

func TestTrendingHashtags_TopTagsByFrequency(t *testing.T) {
	gw := &stubGateway{
		discover: map[string]feedPage{
			"": {
				items: feedItems(
					imagePost("at://p/1", "morning walk #art #photo"),
					imagePost("at://p/2", "#art again"),
					imagePost("at://p/3", "#Art #design #nsfw"),
				),
			},
		},
	}
	svc := NewService(gw, nil, nil)

	tags, err := svc.TrendingHashtags(context.Background())
	require.NoError(t, err)

	// art x3 (case folded), then alphabetical among the single counts;
	// blocked tags never surface
	assert.Equal(t, []string{"art", "design", "photo"}, tags)
}

func TestPopularCategories_FollowsCursorAcrossWindows(t *testing.T) {
	gw := &stubGateway{
		discover: map[string]feedPage{
			"":   {items: feedItems(imagePost("at://p/1", "#travel")), next: "w2"},
			"w2": {items: feedItems(imagePost("at://p/2", "#travel #food")), next: "w3"},
			"w3": {items: feedItems(imagePost("at://p/3", "#food")), next: "w4"},
			"w4": {items: feedItems(imagePost("at://p/4", "#never")), next: ""},
		},
	}
	svc := NewService(gw, nil, nil)

	tags, err := svc.PopularCategories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"food", "travel"}, tags)
	assert.Equal(t, 3, gw.discoverCalls, "samples at most three windows")
}

// recordingHydrator captures which posts were pushed for hydration
type recordingHydrator struct {
	mu   sync.Mutex
	uris []string
}

func (h *recordingHydrator) HydratePost(p posts.Post) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.uris = append(h.uris, p.URI)
}

func TestMoreFeed_HydratesOnlyNewItems(t *testing.T) {
	gw := &stubGateway{
		timeline: map[string]feedPage{
			"": {
				items: feedItems(imagePost("at://p/1", "a")),
				next:  "cur1",
			},
			"cur1": {
				items: feedItems(imagePost("at://p/1", "a"), imagePost("at://p/2", "b")),
				next:  "",
			},
		},
	}
	h := &recordingHydrator{}
	svc := NewService(gw, h, nil)

	q := FeedQuery{Kind: KindTimeline}
	first, err := svc.RefreshFeed(context.Background(), q)
	require.NoError(t, err)

	_, err = svc.MoreFeed(context.Background(), q, first.Items, first.Cursor)
	require.NoError(t, err)

	assert.Equal(t, []string{"at://p/1", "at://p/2"}, h.uris, "each post hydrated once")
}
