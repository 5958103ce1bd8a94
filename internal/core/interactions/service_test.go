package interactions

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyframe/internal/core/posts"
)

// validCID is a real CIDv1 so cid.Decode accepts it
const validCID = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"

const postURI = "at://did:plc:author/app.bsky.feed.post/3kabc"

// fakeGateway records mutations and returns configurable results
type fakeGateway struct {
	mu sync.Mutex

	likeCalls   int
	unlikeCalls int
	followCalls int

	likeErr error
	likeURI string

	block chan struct{} // when set, Like blocks until closed

	deletedURIs []string
}

func (g *fakeGateway) Like(ctx context.Context, uri, cid string) (string, error) {
	g.mu.Lock()
	g.likeCalls++
	block := g.block
	g.mu.Unlock()
	if block != nil {
		<-block
	}
	if g.likeErr != nil {
		return "", g.likeErr
	}
	if g.likeURI != "" {
		return g.likeURI, nil
	}
	return "at://did:plc:me/app.bsky.feed.like/3klike", nil
}

func (g *fakeGateway) DeleteLike(ctx context.Context, likeURI string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unlikeCalls++
	g.deletedURIs = append(g.deletedURIs, likeURI)
	return nil
}

func (g *fakeGateway) Repost(ctx context.Context, uri, cid string) (string, error) {
	return "at://did:plc:me/app.bsky.feed.repost/3krep", nil
}

func (g *fakeGateway) DeleteRepost(ctx context.Context, repostURI string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletedURIs = append(g.deletedURIs, repostURI)
	return nil
}

func (g *fakeGateway) Follow(ctx context.Context, did string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.followCalls++
	return "at://did:plc:me/app.bsky.graph.follow/3kfol", nil
}

func (g *fakeGateway) DeleteFollow(ctx context.Context, followURI string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletedURIs = append(g.deletedURIs, followURI)
	return nil
}

func TestLikeUnlike_RoundTrip(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, nil)

	require.NoError(t, svc.LikePost(context.Background(), postURI, validCID))
	assert.True(t, svc.Active(KindLike, postURI))
	assert.Equal(t, "at://did:plc:me/app.bsky.feed.like/3klike", svc.RecordURI(KindLike, postURI))

	require.NoError(t, svc.UnlikePost(context.Background(), postURI))
	assert.False(t, svc.Active(KindLike, postURI))
	assert.Empty(t, svc.RecordURI(KindLike, postURI))

	// The stored record URI, not anything reconstructed, was deleted
	assert.Equal(t, []string{"at://did:plc:me/app.bsky.feed.like/3klike"}, gw.deletedURIs)
}

func TestLikePost_RejectsInvalidCID(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, nil)

	err := svc.LikePost(context.Background(), postURI, "not-a-cid")
	require.ErrorIs(t, err, ErrInvalidCID)
	assert.Zero(t, gw.likeCalls, "no remote call for an invalid CID")
}

func TestLikePost_AlreadyActive(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, nil)

	require.NoError(t, svc.LikePost(context.Background(), postURI, validCID))

	err := svc.LikePost(context.Background(), postURI, validCID)
	require.ErrorIs(t, err, ErrAlreadyActive)
	assert.Equal(t, 1, gw.likeCalls, "second like never reaches the server")
}

func TestLikePost_FailureDoesNotAdvanceState(t *testing.T) {
	gw := &fakeGateway{likeErr: errors.New("pds unavailable")}
	svc := NewService(gw, nil)

	err := svc.LikePost(context.Background(), postURI, validCID)
	require.Error(t, err)
	assert.False(t, svc.Active(KindLike, postURI))

	// Retry works once the server recovers
	gw.likeErr = nil
	require.NoError(t, svc.LikePost(context.Background(), postURI, validCID))
	assert.True(t, svc.Active(KindLike, postURI))
}

func TestUnlikePost_WithoutRecordURI(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, nil)

	err := svc.UnlikePost(context.Background(), postURI)
	require.ErrorIs(t, err, ErrNoRecord)
	assert.Zero(t, gw.unlikeCalls, "no delete without an undo token")
}

func TestConcurrentLikes_ExactlyOneMutation(t *testing.T) {
	gw := &fakeGateway{block: make(chan struct{})}
	svc := NewService(gw, nil)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results <- svc.LikePost(context.Background(), postURI, validCID)
	}()

	// Wait for the first call to reach the gateway, then race a second
	for {
		gw.mu.Lock()
		started := gw.likeCalls == 1
		gw.mu.Unlock()
		if started {
			break
		}
	}

	results <- svc.LikePost(context.Background(), postURI, validCID)
	close(gw.block)
	wg.Wait()
	close(results)

	var failures []error
	for err := range results {
		if err != nil {
			failures = append(failures, err)
		}
	}
	require.Len(t, failures, 1, "one call wins, one is rejected")
	assert.ErrorIs(t, failures[0], ErrOperationInProgress)
	assert.Equal(t, 1, gw.likeCalls, "exactly one record created")
	assert.True(t, svc.Active(KindLike, postURI))
}

func TestFollowUnfollow_RoundTrip(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, nil)

	did := "did:plc:someone"
	require.NoError(t, svc.FollowUser(context.Background(), did))
	assert.True(t, svc.Active(KindFollow, did))

	require.NoError(t, svc.UnfollowUser(context.Background(), did))
	assert.False(t, svc.Active(KindFollow, did))
	assert.Equal(t, []string{"at://did:plc:me/app.bsky.graph.follow/3kfol"}, gw.deletedURIs)
}

func TestHydrate_SeedsAndClearsState(t *testing.T) {
	svc := NewService(&fakeGateway{}, nil)

	svc.Hydrate(KindLike, postURI, "at://did:plc:me/app.bsky.feed.like/3kold")
	assert.True(t, svc.Active(KindLike, postURI))

	svc.Hydrate(KindLike, postURI, "")
	assert.False(t, svc.Active(KindLike, postURI))
}

func TestHydrate_NeverOverwritesLocalToggle(t *testing.T) {
	gw := &fakeGateway{}
	svc := NewService(gw, nil)

	require.NoError(t, svc.LikePost(context.Background(), postURI, validCID))

	// A stale feed page arrives reporting no like; the local toggle wins
	svc.Hydrate(KindLike, postURI, "")
	assert.True(t, svc.Active(KindLike, postURI))

	require.NoError(t, svc.UnlikePost(context.Background(), postURI))

	// And the same after an undo
	svc.Hydrate(KindLike, postURI, "at://did:plc:me/app.bsky.feed.like/3kstale")
	assert.False(t, svc.Active(KindLike, postURI))
}

func TestHydratePost_SeedsBothEdgeKinds(t *testing.T) {
	svc := NewService(&fakeGateway{}, nil)

	like := "at://did:plc:me/app.bsky.feed.like/3ka"
	repost := "at://did:plc:me/app.bsky.feed.repost/3kb"
	svc.HydratePost(posts.Post{
		URI:    postURI,
		Viewer: posts.ViewerState{Like: &like, Repost: &repost},
	})

	assert.Equal(t, like, svc.RecordURI(KindLike, postURI))
	assert.Equal(t, repost, svc.RecordURI(KindRepost, postURI))
}
