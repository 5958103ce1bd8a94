// Package feeds implements cursor-driven pagination shared by the
// timeline, discover feed, search, author feeds, notifications and
// related-post discovery. The engine owns de-duplication, per-query
// serialization of page loads, and the content-safety filter.
package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Page is one merged view of a paginated query. An empty Cursor is the
// authoritative "no more data" signal.
type Page[T any] struct {
	Items  []T    `json:"items"`
	Cursor string `json:"cursor,omitempty"`
}

// Fetcher retrieves one raw page from upstream. An empty cursor requests
// the first page; the returned cursor is empty when upstream is exhausted.
type Fetcher[T any] func(ctx context.Context, cursor string) (items []T, next string, err error)

// Engine merges pages for any number of query keys. Within one key, page
// loads are serialized: a LoadNext that overlaps an in-flight load for the
// same key is ignored, not queued, so overlapping windows cannot race.
// Different keys are fully independent.
type Engine[T any] struct {
	mu       sync.Mutex
	inflight map[string]int

	key    func(T) string
	safe   func(T) bool // nil means no filtering
	logger *slog.Logger
}

// NewEngine creates a pagination engine. key extracts the identity used
// for de-duplication; safe, when non-nil, is the content-safety predicate
// applied before an item counts toward a page.
func NewEngine[T any](key func(T) string, safe func(T) bool, logger *slog.Logger) *Engine[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine[T]{
		inflight: make(map[string]int),
		key:      key,
		safe:     safe,
		logger:   logger,
	}
}

// LoadFirst fetches the first page for a query key, replacing any previous
// state the caller held for it. Upstream failures are returned without
// retry; the caller decides whether to retry or show an error state.
func (e *Engine[T]) LoadFirst(ctx context.Context, queryKey string, fetch Fetcher[T]) (Page[T], error) {
	e.begin(queryKey)
	defer e.end(queryKey)

	items, next, err := fetch(ctx, "")
	if err != nil {
		return Page[T]{}, fmt.Errorf("failed to load first page for %s: %w", queryKey, err)
	}

	merged := e.merge(nil, items)

	e.logger.Debug("first page loaded",
		"query", queryKey,
		"raw", len(items),
		"kept", len(merged),
		"more", next != "")

	return Page[T]{Items: merged, Cursor: next}, nil
}

// LoadNext fetches the page after cursor and appends the net-new items to
// current. It is a no-op returning unchanged state when the cursor is
// empty or a load for this key is already in flight. The engine never
// loops internally: a page of zero net-new items with a cursor is returned
// as-is and the caller decides what to do next.
func (e *Engine[T]) LoadNext(ctx context.Context, queryKey string, current []T, cursor string, fetch Fetcher[T]) (Page[T], error) {
	if cursor == "" {
		return Page[T]{Items: current}, nil
	}

	if !e.tryBegin(queryKey) {
		e.logger.Debug("page load already in flight, ignoring", "query", queryKey)
		return Page[T]{Items: current, Cursor: cursor}, nil
	}
	defer e.end(queryKey)

	items, next, err := fetch(ctx, cursor)
	if err != nil {
		return Page[T]{Items: current, Cursor: cursor}, fmt.Errorf("failed to load next page for %s: %w", queryKey, err)
	}

	merged := e.merge(current, items)

	e.logger.Debug("next page loaded",
		"query", queryKey,
		"raw", len(items),
		"added", len(merged)-len(current),
		"more", next != "")

	return Page[T]{Items: merged, Cursor: next}, nil
}

// merge appends items that pass the safety filter and whose identity is
// not already present. Upstream order is preserved; nothing is re-sorted.
func (e *Engine[T]) merge(current []T, incoming []T) []T {
	seen := make(map[string]struct{}, len(current)+len(incoming))
	for _, item := range current {
		seen[e.key(item)] = struct{}{}
	}

	merged := current
	for _, item := range incoming {
		if e.safe != nil && !e.safe(item) {
			continue
		}
		k := e.key(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		merged = append(merged, item)
	}
	return merged
}

// begin marks a query in flight, used by LoadFirst where a refresh always
// proceeds (last write wins) but still shields concurrent LoadNext calls.
// The count is a reference count so overlapping refreshes keep the key in
// flight until the last one returns.
func (e *Engine[T]) begin(queryKey string) {
	e.mu.Lock()
	e.inflight[queryKey]++
	e.mu.Unlock()
}

// tryBegin marks a query in flight unless one already is
func (e *Engine[T]) tryBegin(queryKey string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight[queryKey] > 0 {
		return false
	}
	e.inflight[queryKey] = 1
	return true
}

func (e *Engine[T]) end(queryKey string) {
	e.mu.Lock()
	e.inflight[queryKey]--
	if e.inflight[queryKey] <= 0 {
		delete(e.inflight, queryKey)
	}
	e.mu.Unlock()
}
