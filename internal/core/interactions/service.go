// Package interactions tracks whether the current user has an active
// like, repost or follow against each subject, together with the opaque
// record URI the server assigned when the edge was created. Record URIs
// are the only valid undo tokens; the machine never reconstructs them.
package interactions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ipfs/go-cid"

	"skyframe/internal/core/posts"
	"skyframe/internal/core/profiles"
)

// Kind discriminates the three edge types
type Kind string

const (
	KindLike   Kind = "like"
	KindRepost Kind = "repost"
	KindFollow Kind = "follow"
)

// edgeKey is the composite identity of one interaction edge. Subject is a
// post URI for likes/reposts and an actor DID for follows.
type edgeKey struct {
	kind    Kind
	subject string
}

// Gateway is the subset of the Bluesky API surface the machine mutates
// through
type Gateway interface {
	Follow(ctx context.Context, did string) (string, error)
	DeleteFollow(ctx context.Context, followURI string) error
	Like(ctx context.Context, uri, cid string) (string, error)
	DeleteLike(ctx context.Context, likeURI string) error
	Repost(ctx context.Context, uri, cid string) (string, error)
	DeleteRepost(ctx context.Context, repostURI string) error
}

// Service is the interaction state machine. All state lives behind its
// methods; nothing else may mutate the edge map.
type Service interface {
	LikePost(ctx context.Context, uri, cid string) error
	UnlikePost(ctx context.Context, uri string) error
	RepostPost(ctx context.Context, uri, cid string) error
	UnrepostPost(ctx context.Context, uri string) error
	FollowUser(ctx context.Context, did string) error
	UnfollowUser(ctx context.Context, did string) error

	// Active reports whether an edge of this kind is currently active
	Active(kind Kind, subject string) bool

	// RecordURI returns the stored undo token, or "" when inactive
	RecordURI(kind Kind, subject string) string

	// Hydrate seeds state from server-reported viewer flags. An empty
	// recordURI means inactive. Subjects the user has toggled locally
	// this session are never overwritten.
	Hydrate(kind Kind, subject, recordURI string)

	// HydratePost seeds like/repost state from a post's viewer flags
	HydratePost(p posts.Post)

	// HydrateProfile seeds follow state from a profile's viewer flags
	HydrateProfile(p *profiles.Profile)
}

type machine struct {
	gw     Gateway
	logger *slog.Logger

	mu      sync.Mutex
	edges   map[edgeKey]string   // active edge -> record URI
	pending map[edgeKey]struct{} // one outstanding call per edge
	touched map[edgeKey]struct{} // edges the user toggled this session
}

// NewService creates the interaction state machine
func NewService(gw Gateway, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &machine{
		gw:      gw,
		logger:  logger,
		edges:   make(map[edgeKey]string),
		pending: make(map[edgeKey]struct{}),
		touched: make(map[edgeKey]struct{}),
	}
}

func (m *machine) LikePost(ctx context.Context, uri, cidStr string) error {
	if _, err := cid.Decode(cidStr); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCID, cidStr)
	}
	return m.activate(ctx, KindLike, uri, func(ctx context.Context) (string, error) {
		return m.gw.Like(ctx, uri, cidStr)
	})
}

func (m *machine) UnlikePost(ctx context.Context, uri string) error {
	return m.deactivate(ctx, KindLike, uri, m.gw.DeleteLike)
}

func (m *machine) RepostPost(ctx context.Context, uri, cidStr string) error {
	if _, err := cid.Decode(cidStr); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCID, cidStr)
	}
	return m.activate(ctx, KindRepost, uri, func(ctx context.Context) (string, error) {
		return m.gw.Repost(ctx, uri, cidStr)
	})
}

func (m *machine) UnrepostPost(ctx context.Context, uri string) error {
	return m.deactivate(ctx, KindRepost, uri, m.gw.DeleteRepost)
}

func (m *machine) FollowUser(ctx context.Context, did string) error {
	return m.activate(ctx, KindFollow, did, func(ctx context.Context) (string, error) {
		return m.gw.Follow(ctx, did)
	})
}

func (m *machine) UnfollowUser(ctx context.Context, did string) error {
	return m.deactivate(ctx, KindFollow, did, m.gw.DeleteFollow)
}

// activate transitions Inactive -> Active(recordURI). Valid only from
// Inactive; a concurrent call for the same edge is rejected. On failure
// the state does not advance and the error surfaces to the caller.
func (m *machine) activate(ctx context.Context, kind Kind, subject string, mutate func(context.Context) (string, error)) error {
	k := edgeKey{kind: kind, subject: subject}

	m.mu.Lock()
	if _, busy := m.pending[k]; busy {
		m.mu.Unlock()
		return ErrOperationInProgress
	}
	if _, active := m.edges[k]; active {
		m.mu.Unlock()
		return ErrAlreadyActive
	}
	m.pending[k] = struct{}{}
	m.mu.Unlock()

	recordURI, err := mutate(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, k)

	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", kind, subject, err)
	}

	m.edges[k] = recordURI
	m.touched[k] = struct{}{}
	m.logger.Debug("interaction activated", "kind", kind, "subject", subject, "record", recordURI)
	return nil
}

// deactivate transitions Active -> Inactive using the stored record URI.
// A missing URI means hydration never ran for this subject; that is
// reported as ErrNoRecord and the remote mutation is not attempted.
func (m *machine) deactivate(ctx context.Context, kind Kind, subject string, mutate func(context.Context, string) error) error {
	k := edgeKey{kind: kind, subject: subject}

	m.mu.Lock()
	if _, busy := m.pending[k]; busy {
		m.mu.Unlock()
		return ErrOperationInProgress
	}
	recordURI, active := m.edges[k]
	if !active || recordURI == "" {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s %s", ErrNoRecord, kind, subject)
	}
	m.pending[k] = struct{}{}
	m.mu.Unlock()

	err := mutate(ctx, recordURI)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, k)

	if err != nil {
		return fmt.Errorf("failed to undo %s %s: %w", kind, subject, err)
	}

	delete(m.edges, k)
	m.touched[k] = struct{}{}
	m.logger.Debug("interaction deactivated", "kind", kind, "subject", subject)
	return nil
}

func (m *machine) Active(kind Kind, subject string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.edges[edgeKey{kind: kind, subject: subject}]
	return ok
}

func (m *machine) RecordURI(kind Kind, subject string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.edges[edgeKey{kind: kind, subject: subject}]
}

func (m *machine) Hydrate(kind Kind, subject, recordURI string) {
	k := edgeKey{kind: kind, subject: subject}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A local toggle is newer than whatever the server page reported
	if _, toggled := m.touched[k]; toggled {
		return
	}

	if recordURI == "" {
		delete(m.edges, k)
	} else {
		m.edges[k] = recordURI
	}
}

func (m *machine) HydratePost(p posts.Post) {
	like := ""
	if p.Viewer.Like != nil {
		like = *p.Viewer.Like
	}
	repost := ""
	if p.Viewer.Repost != nil {
		repost = *p.Viewer.Repost
	}
	m.Hydrate(KindLike, p.URI, like)
	m.Hydrate(KindRepost, p.URI, repost)
}

func (m *machine) HydrateProfile(p *profiles.Profile) {
	if p == nil {
		return
	}
	following := ""
	if p.Viewer.Following != nil {
		following = *p.Viewer.Following
	}
	m.Hydrate(KindFollow, p.DID, following)
}
