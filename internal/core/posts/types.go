package posts

import "time"

// Author identifies the account that created a post.
// Matches app.bsky.actor.defs#profileViewBasic
type Author struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// AspectRatio carries the width/height hint for an image embed
type AspectRatio struct {
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

// ImageEmbed is a single image attached to a post
// Matches app.bsky.embed.images#viewImage
type ImageEmbed struct {
	Thumb       string       `json:"thumb"`
	Fullsize    string       `json:"fullsize"`
	Alt         string       `json:"alt,omitempty"`
	AspectRatio *AspectRatio `json:"aspectRatio,omitempty"`
}

// ViewerState carries the server-reported relationship between the
// authenticated user and a post. Like/Repost hold the record URIs of the
// viewer's own like/repost records, needed to undo those actions.
type ViewerState struct {
	Like   *string `json:"like,omitempty"`
	Repost *string `json:"repost,omitempty"`
}

// Post is the canonical content unit.
// The URI is stable for the lifetime of the post; the CID is the content
// hash required when constructing like/repost records against it.
// Counters are server-authoritative.
type Post struct {
	CreatedAt   time.Time    `json:"createdAt"`
	IndexedAt   time.Time    `json:"indexedAt"`
	URI         string       `json:"uri"`
	CID         string       `json:"cid"`
	Text        string       `json:"text"`
	Author      Author       `json:"author"`
	Images      []ImageEmbed `json:"images,omitempty"`
	Labels      []string     `json:"labels,omitempty"`
	Viewer      ViewerState  `json:"viewer"`
	LikeCount   int64        `json:"likeCount"`
	RepostCount int64        `json:"repostCount"`
	ReplyCount  int64        `json:"replyCount"`
}

// Key returns the post's identity for de-duplication
func (p Post) Key() string { return p.URI }

// HasImages reports whether the post carries at least one image embed
func (p Post) HasImages() bool { return len(p.Images) > 0 }

// RepostReason indicates a feed item appeared because someone reposted it
type RepostReason struct {
	By        Author    `json:"by"`
	IndexedAt time.Time `json:"indexedAt"`
}

// ReplyRef carries minimal reply context for a feed item
type ReplyRef struct {
	RootURI   string `json:"rootUri,omitempty"`
	ParentURI string `json:"parentUri,omitempty"`
}

// FeedItem wraps a post with feed-specific context. Produced only by
// feed/timeline queries; search results are bare posts.
type FeedItem struct {
	Post   Post          `json:"post"`
	Reason *RepostReason `json:"reason,omitempty"`
	Reply  *ReplyRef     `json:"reply,omitempty"`
}

// Key returns the wrapped post's URI. Feeds are de-duplicated on post
// identity, so the same post reposted by two accounts appears once.
func (f FeedItem) Key() string { return f.Post.URI }

// Notification is a single inbox entry from app.bsky.notification.listNotifications
type Notification struct {
	IndexedAt     time.Time `json:"indexedAt"`
	URI           string    `json:"uri"`
	CID           string    `json:"cid"`
	Reason        string    `json:"reason"`
	ReasonSubject string    `json:"reasonSubject,omitempty"`
	Author        Author    `json:"author"`
	IsRead        bool      `json:"isRead"`
}

// Key returns the notification record's identity for de-duplication
func (n Notification) Key() string { return n.URI }
