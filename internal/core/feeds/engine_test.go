package feeds

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	ID   string
	Safe bool
}

func newTestEngine() *Engine[testItem] {
	key := func(i testItem) string { return i.ID }
	safe := func(i testItem) bool { return i.Safe }
	return NewEngine(key, safe, nil)
}

func pageOf(ids ...string) []testItem {
	items := make([]testItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, testItem{ID: id, Safe: true})
	}
	return items
}

func TestLoadFirst_ReplacesState(t *testing.T) {
	e := newTestEngine()

	fetch := func(ctx context.Context, cursor string) ([]testItem, string, error) {
		assert.Empty(t, cursor, "first page must be fetched without a cursor")
		return pageOf("a", "b", "c"), "cur1", nil
	}

	page, err := e.LoadFirst(context.Background(), "q", fetch)
	require.NoError(t, err)
	assert.Equal(t, pageOf("a", "b", "c"), page.Items)
	assert.Equal(t, "cur1", page.Cursor)

	// A refresh starts over; nothing from the previous window survives
	fetch = func(ctx context.Context, cursor string) ([]testItem, string, error) {
		return pageOf("x"), "", nil
	}
	page, err = e.LoadFirst(context.Background(), "q", fetch)
	require.NoError(t, err)
	assert.Equal(t, pageOf("x"), page.Items)
	assert.Empty(t, page.Cursor, "exhausted upstream yields no cursor")
}

func TestLoadNext_DeduplicatesOverlappingPages(t *testing.T) {
	e := newTestEngine()

	current := pageOf("a", "b", "c")

	// Upstream shifted under us: the next window overlaps the previous one
	fetch := func(ctx context.Context, cursor string) ([]testItem, string, error) {
		assert.Equal(t, "cur1", cursor)
		return pageOf("b", "c", "d", "e"), "cur2", nil
	}

	page, err := e.LoadNext(context.Background(), "q", current, "cur1", fetch)
	require.NoError(t, err)
	assert.Equal(t, pageOf("a", "b", "c", "d", "e"), page.Items, "duplicates dropped, order preserved")
	assert.Equal(t, "cur2", page.Cursor)
}

func TestLoadNext_EmptyCursorIsNoOp(t *testing.T) {
	e := newTestEngine()

	called := false
	fetch := func(ctx context.Context, cursor string) ([]testItem, string, error) {
		called = true
		return nil, "", nil
	}

	current := pageOf("a")
	page, err := e.LoadNext(context.Background(), "q", current, "", fetch)
	require.NoError(t, err)
	assert.False(t, called, "no upstream call without a cursor")
	assert.Equal(t, current, page.Items)
	assert.Empty(t, page.Cursor)
}

func TestLoadNext_InFlightLoadIsIgnored(t *testing.T) {
	e := newTestEngine()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	slowFetch := func(ctx context.Context, cursor string) ([]testItem, string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
		return pageOf("b"), "cur2", nil
	}

	current := pageOf("a")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		page, err := e.LoadNext(context.Background(), "q", current, "cur1", slowFetch)
		assert.NoError(t, err)
		assert.Equal(t, pageOf("a", "b"), page.Items)
	}()

	<-started

	// Overlapping call for the same key: unchanged state, no second fetch
	page, err := e.LoadNext(context.Background(), "q", current, "cur1", slowFetch)
	require.NoError(t, err)
	assert.Equal(t, current, page.Items)
	assert.Equal(t, "cur1", page.Cursor)

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "exactly one upstream fetch")
}

func TestLoadNext_IndependentKeysDoNotBlock(t *testing.T) {
	e := newTestEngine()

	started := make(chan struct{})
	release := make(chan struct{})
	slowFetch := func(ctx context.Context, cursor string) ([]testItem, string, error) {
		close(started)
		<-release
		return pageOf("b"), "", nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := e.LoadNext(context.Background(), "q1", pageOf("a"), "cur", slowFetch)
		assert.NoError(t, err)
	}()
	<-started

	// A different query key proceeds while q1 is in flight
	page, err := e.LoadNext(context.Background(), "q2", nil, "cur", func(ctx context.Context, cursor string) ([]testItem, string, error) {
		return pageOf("z"), "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, pageOf("z"), page.Items)

	close(release)
	wg.Wait()
}

func TestMerge_FiltersUnsafeItems(t *testing.T) {
	e := newTestEngine()

	fetch := func(ctx context.Context, cursor string) ([]testItem, string, error) {
		return []testItem{
			{ID: "a", Safe: true},
			{ID: "b", Safe: false},
			{ID: "c", Safe: true},
		}, "cur1", nil
	}

	page, err := e.LoadFirst(context.Background(), "q", fetch)
	require.NoError(t, err)
	assert.Equal(t, pageOf("a", "c"), page.Items, "filtered items never reach the page")
	assert.Equal(t, "cur1", page.Cursor, "cursor advances past filtered items")
}

func TestNewEngine_NilSafeKeepsEverything(t *testing.T) {
	e := NewEngine(func(i testItem) string { return i.ID }, nil, nil)

	fetch := func(ctx context.Context, cursor string) ([]testItem, string, error) {
		return []testItem{{ID: "a"}, {ID: "b", Safe: false}}, "", nil
	}

	page, err := e.LoadFirst(context.Background(), "q", fetch)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestLoadNext_FetchErrorPreservesState(t *testing.T) {
	e := newTestEngine()

	current := pageOf("a", "b")
	fetch := func(ctx context.Context, cursor string) ([]testItem, string, error) {
		return nil, "", errors.New("upstream down")
	}

	page, err := e.LoadNext(context.Background(), "q", current, "cur1", fetch)
	require.Error(t, err)
	assert.Equal(t, current, page.Items, "state does not advance on failure")
	assert.Equal(t, "cur1", page.Cursor, "cursor does not advance on failure")
}

func TestLoadFirst_OverlappingRefreshesKeepShieldingLoadNext(t *testing.T) {
	e := newTestEngine()

	started := make(chan struct{}, 2)
	release := make(chan struct{})
	slowFetch := func(ctx context.Context, cursor string) ([]testItem, string, error) {
		started <- struct{}{}
		<-release
		return pageOf("a"), "cur1", nil
	}

	firstDone := make(chan struct{})
	secondDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, err := e.LoadFirst(context.Background(), "q", slowFetch)
		assert.NoError(t, err)
	}()
	go func() {
		defer close(secondDone)
		_, err := e.LoadFirst(context.Background(), "q", slowFetch)
		assert.NoError(t, err)
	}()
	<-started
	<-started

	// Let exactly one refresh finish; the other is still in flight
	release <- struct{}{}
	select {
	case <-firstDone:
	case <-secondDone:
	}

	// A LoadNext for the key must still be rejected
	var called bool
	fetch := func(ctx context.Context, cursor string) ([]testItem, string, error) {
		called = true
		return pageOf("b"), "", nil
	}
	page, err := e.LoadNext(context.Background(), "q", pageOf("a"), "cur1", fetch)
	require.NoError(t, err)
	assert.False(t, called, "pagination must not interleave with an outstanding refresh")
	assert.Equal(t, "cur1", page.Cursor)

	// Once the last refresh returns, pagination proceeds again
	release <- struct{}{}
	<-firstDone
	<-secondDone

	page, err = e.LoadNext(context.Background(), "q", pageOf("a"), "cur1", fetch)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, pageOf("a", "b"), page.Items)
}
