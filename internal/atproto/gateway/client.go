package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	appbsky "github.com/bluesky-social/indigo/api/bsky"
	"github.com/bluesky-social/indigo/atproto/syntax"
	lexutil "github.com/bluesky-social/indigo/lex/util"

	"skyframe/internal/atproto/session"
	"skyframe/internal/core/posts"
	"skyframe/internal/core/profiles"
)

// AT Protocol collections for interaction records
const (
	likeCollection   = "app.bsky.feed.like"
	repostCollection = "app.bsky.feed.repost"
	followCollection = "app.bsky.graph.follow"
)

// client implements Client over indigo's XRPC bindings, obtaining an
// authenticated transport from the session manager per call so token
// refresh stays transparent.
type client struct {
	sessions *session.Manager
	logger   *slog.Logger
}

var _ Client = (*client)(nil)

// NewClient creates a gateway client bound to the session manager
func NewClient(sessions *session.Manager, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &client{sessions: sessions, logger: logger}
}

// GetTimeline returns the authenticated user's home timeline
func (c *client) GetTimeline(ctx context.Context, limit int64, cursor string) ([]posts.FeedItem, string, error) {
	xc, err := c.sessions.Client(ctx)
	if err != nil {
		return nil, "", err
	}

	output, err := appbsky.FeedGetTimeline(ctx, xc, "", cursor, limit)
	if err != nil {
		return nil, "", wrapXRPCError(err, "getTimeline")
	}

	return convertFeed(output.Feed), derefCursor(output.Cursor), nil
}

// GetFeed returns a feed generator's output
func (c *client) GetFeed(ctx context.Context, feedURI string, limit int64, cursor string) ([]posts.FeedItem, string, error) {
	xc, err := c.sessions.Client(ctx)
	if err != nil {
		return nil, "", err
	}

	output, err := appbsky.FeedGetFeed(ctx, xc, cursor, feedURI, limit)
	if err != nil {
		return nil, "", wrapXRPCError(err, "getFeed")
	}

	return convertFeed(output.Feed), derefCursor(output.Cursor), nil
}

// SearchPosts runs a full-text post search
func (c *client) SearchPosts(ctx context.Context, query string, limit int64, cursor string) ([]posts.Post, string, error) {
	xc, err := c.sessions.Client(ctx)
	if err != nil {
		return nil, "", err
	}

	output, err := appbsky.FeedSearchPosts(ctx, xc, "", cursor, "", "", limit, "", query, "", "", nil, "", "")
	if err != nil {
		return nil, "", wrapXRPCError(err, "searchPosts")
	}

	result := make([]posts.Post, 0, len(output.Posts))
	for _, pv := range output.Posts {
		if pv == nil {
			continue
		}
		result = append(result, convertPost(pv))
	}
	return result, derefCursor(output.Cursor), nil
}

// GetAuthorFeed returns posts authored by an actor
func (c *client) GetAuthorFeed(ctx context.Context, actor string, limit int64, cursor string) ([]posts.FeedItem, string, error) {
	xc, err := c.sessions.Client(ctx)
	if err != nil {
		return nil, "", err
	}

	output, err := appbsky.FeedGetAuthorFeed(ctx, xc, actor, cursor, "posts_with_media", false, limit)
	if err != nil {
		return nil, "", wrapXRPCError(err, "getAuthorFeed")
	}

	return convertFeed(output.Feed), derefCursor(output.Cursor), nil
}

// GetProfile returns a detailed actor view including viewer state
func (c *client) GetProfile(ctx context.Context, actor string) (*profiles.Profile, error) {
	xc, err := c.sessions.Client(ctx)
	if err != nil {
		return nil, err
	}

	output, err := appbsky.ActorGetProfile(ctx, xc, actor)
	if err != nil {
		return nil, wrapXRPCError(err, "getProfile")
	}

	profile := &profiles.Profile{
		DID:            output.Did,
		Handle:         output.Handle,
		DisplayName:    deref(output.DisplayName),
		Avatar:         deref(output.Avatar),
		Description:    deref(output.Description),
		PostsCount:     derefInt(output.PostsCount),
		FollowersCount: derefInt(output.FollowersCount),
		FollowsCount:   derefInt(output.FollowsCount),
	}
	if output.Viewer != nil {
		profile.Viewer.Following = output.Viewer.Following
		profile.Viewer.FollowedBy = output.Viewer.FollowedBy
	}
	return profile, nil
}

// ListNotifications returns the authenticated user's notifications
func (c *client) ListNotifications(ctx context.Context, limit int64, cursor string) ([]posts.Notification, string, error) {
	xc, err := c.sessions.Client(ctx)
	if err != nil {
		return nil, "", err
	}

	output, err := appbsky.NotificationListNotifications(ctx, xc, cursor, limit, false, nil, "")
	if err != nil {
		return nil, "", wrapXRPCError(err, "listNotifications")
	}

	result := make([]posts.Notification, 0, len(output.Notifications))
	for _, n := range output.Notifications {
		if n == nil {
			continue
		}
		notif := posts.Notification{
			URI:           n.Uri,
			CID:           n.Cid,
			Reason:        n.Reason,
			ReasonSubject: deref(n.ReasonSubject),
			IsRead:        n.IsRead,
			IndexedAt:     parseTime(n.IndexedAt),
		}
		if n.Author != nil {
			notif.Author = posts.Author{
				DID:         n.Author.Did,
				Handle:      n.Author.Handle,
				DisplayName: deref(n.Author.DisplayName),
				Avatar:      deref(n.Author.Avatar),
			}
		}
		result = append(result, notif)
	}
	return result, derefCursor(output.Cursor), nil
}

// GetPosts hydrates up to 25 post URIs in one call
func (c *client) GetPosts(ctx context.Context, uris []string) ([]posts.Post, error) {
	if len(uris) == 0 {
		return nil, nil
	}
	if len(uris) > 25 {
		return nil, fmt.Errorf("getPosts accepts at most 25 URIs, got %d", len(uris))
	}

	xc, err := c.sessions.Client(ctx)
	if err != nil {
		return nil, err
	}

	output, err := appbsky.FeedGetPosts(ctx, xc, uris)
	if err != nil {
		return nil, wrapXRPCError(err, "getPosts")
	}

	result := make([]posts.Post, 0, len(output.Posts))
	for _, pv := range output.Posts {
		if pv == nil {
			continue
		}
		result = append(result, convertPost(pv))
	}
	return result, nil
}

// Follow creates a follow record and returns its URI
func (c *client) Follow(ctx context.Context, did string) (string, error) {
	record := &appbsky.GraphFollow{
		LexiconTypeID: followCollection,
		CreatedAt:     syntax.DatetimeNow().String(),
		Subject:       did,
	}
	return c.createRecord(ctx, followCollection, record)
}

// DeleteFollow removes a follow record by its URI
func (c *client) DeleteFollow(ctx context.Context, followURI string) error {
	return c.deleteRecord(ctx, followCollection, followURI)
}

// Like creates a like record against a post and returns its URI
func (c *client) Like(ctx context.Context, uri, cid string) (string, error) {
	record := &appbsky.FeedLike{
		LexiconTypeID: likeCollection,
		CreatedAt:     syntax.DatetimeNow().String(),
		Subject:       &comatproto.RepoStrongRef{Uri: uri, Cid: cid},
	}
	return c.createRecord(ctx, likeCollection, record)
}

// DeleteLike removes a like record by its URI
func (c *client) DeleteLike(ctx context.Context, likeURI string) error {
	return c.deleteRecord(ctx, likeCollection, likeURI)
}

// Repost creates a repost record against a post and returns its URI
func (c *client) Repost(ctx context.Context, uri, cid string) (string, error) {
	record := &appbsky.FeedRepost{
		LexiconTypeID: repostCollection,
		CreatedAt:     syntax.DatetimeNow().String(),
		Subject:       &comatproto.RepoStrongRef{Uri: uri, Cid: cid},
	}
	return c.createRecord(ctx, repostCollection, record)
}

// DeleteRepost removes a repost record by its URI
func (c *client) DeleteRepost(ctx context.Context, repostURI string) error {
	return c.deleteRecord(ctx, repostCollection, repostURI)
}

// createRecord writes a record into the authenticated user's repository
// and returns the record URI the server assigned
func (c *client) createRecord(ctx context.Context, collection string, record lexutil.CBOR) (string, error) {
	sess, err := c.sessions.Current(ctx)
	if err != nil {
		return "", err
	}
	xc, err := c.sessions.Client(ctx)
	if err != nil {
		return "", err
	}

	output, err := comatproto.RepoCreateRecord(ctx, xc, &comatproto.RepoCreateRecord_Input{
		Collection: collection,
		Repo:       sess.DID,
		Record:     &lexutil.LexiconTypeDecoder{Val: record},
	})
	if err != nil {
		return "", wrapXRPCError(err, "createRecord "+collection)
	}

	c.logger.Debug("record created", "collection", collection, "uri", output.Uri)
	return output.Uri, nil
}

// deleteRecord removes a record by AT-URI. The record URI is the undo
// token returned by createRecord; its rkey is parsed, never guessed.
func (c *client) deleteRecord(ctx context.Context, collection string, recordURI string) error {
	sess, err := c.sessions.Current(ctx)
	if err != nil {
		return err
	}

	aturi, err := syntax.ParseATURI(recordURI)
	if err != nil {
		return fmt.Errorf("invalid record URI %q: %w", recordURI, err)
	}

	xc, err := c.sessions.Client(ctx)
	if err != nil {
		return err
	}

	_, err = comatproto.RepoDeleteRecord(ctx, xc, &comatproto.RepoDeleteRecord_Input{
		Collection: collection,
		Repo:       sess.DID,
		Rkey:       aturi.RecordKey().String(),
	})
	if err != nil {
		return wrapXRPCError(err, "deleteRecord "+collection)
	}

	c.logger.Debug("record deleted", "collection", collection, "uri", recordURI)
	return nil
}

// convertFeed maps indigo feed view posts into domain feed items
func convertFeed(feed []*appbsky.FeedDefs_FeedViewPost) []posts.FeedItem {
	items := make([]posts.FeedItem, 0, len(feed))
	for _, fvp := range feed {
		if fvp == nil || fvp.Post == nil {
			continue
		}

		item := posts.FeedItem{Post: convertPost(fvp.Post)}

		if fvp.Reason != nil && fvp.Reason.FeedDefs_ReasonRepost != nil {
			repost := fvp.Reason.FeedDefs_ReasonRepost
			reason := &posts.RepostReason{IndexedAt: parseTime(repost.IndexedAt)}
			if repost.By != nil {
				reason.By = posts.Author{
					DID:         repost.By.Did,
					Handle:      repost.By.Handle,
					DisplayName: deref(repost.By.DisplayName),
					Avatar:      deref(repost.By.Avatar),
				}
			}
			item.Reason = reason
		}

		if fvp.Reply != nil {
			ref := &posts.ReplyRef{}
			if fvp.Reply.Parent != nil && fvp.Reply.Parent.FeedDefs_PostView != nil {
				ref.ParentURI = fvp.Reply.Parent.FeedDefs_PostView.Uri
			}
			if fvp.Reply.Root != nil && fvp.Reply.Root.FeedDefs_PostView != nil {
				ref.RootURI = fvp.Reply.Root.FeedDefs_PostView.Uri
			}
			if ref.ParentURI != "" || ref.RootURI != "" {
				item.Reply = ref
			}
		}

		items = append(items, item)
	}
	return items
}

// convertPost maps an indigo post view into the domain post shape
func convertPost(pv *appbsky.FeedDefs_PostView) posts.Post {
	p := posts.Post{
		URI:         pv.Uri,
		CID:         pv.Cid,
		IndexedAt:   parseTime(pv.IndexedAt),
		LikeCount:   derefInt(pv.LikeCount),
		RepostCount: derefInt(pv.RepostCount),
		ReplyCount:  derefInt(pv.ReplyCount),
	}

	if pv.Author != nil {
		p.Author = posts.Author{
			DID:         pv.Author.Did,
			Handle:      pv.Author.Handle,
			DisplayName: deref(pv.Author.DisplayName),
			Avatar:      deref(pv.Author.Avatar),
		}
	}

	if pv.Record != nil {
		if rec, ok := pv.Record.Val.(*appbsky.FeedPost); ok {
			p.Text = rec.Text
			p.CreatedAt = parseTime(rec.CreatedAt)
		}
	}

	p.Images = convertImages(pv.Embed)

	for _, label := range pv.Labels {
		if label != nil {
			p.Labels = append(p.Labels, label.Val)
		}
	}

	if pv.Viewer != nil {
		p.Viewer.Like = pv.Viewer.Like
		p.Viewer.Repost = pv.Viewer.Repost
	}

	return p
}

// convertImages extracts image embeds from a post view embed union.
// Images can appear directly or inside a record-with-media embed.
func convertImages(embed *appbsky.FeedDefs_PostView_Embed) []posts.ImageEmbed {
	if embed == nil {
		return nil
	}

	var views []*appbsky.EmbedImages_ViewImage
	switch {
	case embed.EmbedImages_View != nil:
		views = embed.EmbedImages_View.Images
	case embed.EmbedRecordWithMedia_View != nil && embed.EmbedRecordWithMedia_View.Media != nil &&
		embed.EmbedRecordWithMedia_View.Media.EmbedImages_View != nil:
		views = embed.EmbedRecordWithMedia_View.Media.EmbedImages_View.Images
	}

	if len(views) == 0 {
		return nil
	}

	images := make([]posts.ImageEmbed, 0, len(views))
	for _, img := range views {
		if img == nil {
			continue
		}
		embed := posts.ImageEmbed{
			Thumb:    img.Thumb,
			Fullsize: img.Fullsize,
			Alt:      img.Alt,
		}
		if img.AspectRatio != nil {
			embed.AspectRatio = &posts.AspectRatio{
				Width:  img.AspectRatio.Width,
				Height: img.AspectRatio.Height,
			}
		}
		images = append(images, embed)
	}
	return images
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

func derefCursor(c *string) string {
	if c == nil {
		return ""
	}
	return *c
}
