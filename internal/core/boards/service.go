// Package boards implements the board aggregation engine: it joins
// collection metadata from the Store with hydrated post content from the
// gateway and funnels every membership mutation through itself.
package boards

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"skyframe/internal/core/posts"
)

// hydrateBatchSize matches the getPosts URI limit
const hydrateBatchSize = 25

type boardService struct {
	store    Store
	hydrator PostHydrator
	logger   *slog.Logger

	mu     sync.Mutex
	cached []BoardWithPosts
	owner  string // owner of the cached list
}

// NewService creates the board aggregation service
func NewService(store Store, hydrator PostHydrator, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &boardService{
		store:    store,
		hydrator: hydrator,
		logger:   logger,
	}
}

// LoadBoards reads board metadata and memberships, hydrates every unique
// saved URI in batched parallel fetches, and assembles per-board post
// lists. URIs the upstream no longer resolves (deleted posts) are dropped
// from their boards rather than failing the whole view.
func (s *boardService) LoadBoards(ctx context.Context, ownerDID string) ([]BoardWithPosts, error) {
	boardRows, err := s.store.ListBoards(ctx, ownerDID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	memberships, err := s.store.ListMemberships(ctx, ownerDID)
	if err != nil {
		return nil, fmt.Errorf("failed to list board memberships: %w", err)
	}

	hydrated, err := s.hydrate(ctx, uniqueURIs(memberships))
	if err != nil {
		return nil, err
	}

	byBoard := make(map[string][]posts.Post)
	dropped := 0
	for _, m := range memberships {
		p, ok := hydrated[m.PostURI]
		if !ok {
			dropped++
			continue
		}
		byBoard[m.BoardID] = append(byBoard[m.BoardID], p)
	}
	if dropped > 0 {
		s.logger.Info("dropped unavailable saved posts", "owner", ownerDID, "count", dropped)
	}

	views := make([]BoardWithPosts, 0, len(boardRows))
	for _, b := range boardRows {
		view := BoardWithPosts{Board: b, Posts: byBoard[b.ID]}
		if view.Posts == nil {
			view.Posts = []posts.Post{}
		}
		views = append(views, view)
	}

	s.mu.Lock()
	s.cached = views
	s.owner = ownerDID
	s.mu.Unlock()

	return views, nil
}

// hydrate fetches post content for URIs in parallel batches and merges
// the results by URI
func (s *boardService) hydrate(ctx context.Context, uris []string) (map[string]posts.Post, error) {
	hydrated := make(map[string]posts.Post, len(uris))
	if len(uris) == 0 {
		return hydrated, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for start := 0; start < len(uris); start += hydrateBatchSize {
		end := start + hydrateBatchSize
		if end > len(uris) {
			end = len(uris)
		}
		batch := uris[start:end]

		wg.Add(1)
		go func() {
			defer wg.Done()
			ps, err := s.hydrator.GetPosts(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			for _, p := range ps {
				hydrated[p.URI] = p
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("failed to hydrate saved posts: %w", firstErr)
	}
	return hydrated, nil
}

// CreateBoard validates input, assigns a client-generated id, persists
// the board and reloads the list
func (s *boardService) CreateBoard(ctx context.Context, ownerDID, title, description string, isPrivate bool) (*Board, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, NewValidationError("title", "title must not be empty")
	}
	if len(description) > maxDescriptionLength {
		return nil, NewValidationError("description", fmt.Sprintf("description must not exceed %d characters", maxDescriptionLength))
	}

	now := time.Now().UTC()
	board := &Board{
		ID:          uuid.NewString(),
		OwnerDID:    ownerDID,
		Title:       title,
		Description: description,
		IsPrivate:   isPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateBoard(ctx, board); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	s.logger.Info("board created", "board", board.ID, "owner", ownerDID)

	if _, err := s.LoadBoards(ctx, ownerDID); err != nil {
		return nil, err
	}
	return board, nil
}

// UpdateBoard applies the provided fields only; unchanged fields are not
// re-sent
func (s *boardService) UpdateBoard(ctx context.Context, boardID string, fields BoardUpdate) (*Board, error) {
	if fields.Title != nil {
		trimmed := strings.TrimSpace(*fields.Title)
		if trimmed == "" {
			return nil, NewValidationError("title", "title must not be empty")
		}
		fields.Title = &trimmed
	}
	if fields.Description != nil && len(*fields.Description) > maxDescriptionLength {
		return nil, NewValidationError("description", fmt.Sprintf("description must not exceed %d characters", maxDescriptionLength))
	}

	board, err := s.store.UpdateBoard(ctx, boardID, fields)
	if err != nil {
		return nil, err
	}

	if _, err := s.LoadBoards(ctx, board.OwnerDID); err != nil {
		return nil, err
	}
	return board, nil
}

// DeleteBoard cascades to all membership rows in one store transaction
func (s *boardService) DeleteBoard(ctx context.Context, boardID string) error {
	board, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteBoard(ctx, boardID); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}

	s.logger.Info("board deleted", "board", boardID)

	if _, err := s.LoadBoards(ctx, board.OwnerDID); err != nil {
		return err
	}
	return nil
}

// SavePost saves a post to a board. Saving an already-saved post is a
// success no-op; the store enforces membership uniqueness.
func (s *boardService) SavePost(ctx context.Context, boardID string, p posts.Post) error {
	board, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return err
	}

	if err := s.store.AddMembership(ctx, boardID, p.URI); err != nil {
		return fmt.Errorf("failed to save post to board: %w", err)
	}

	if _, err := s.LoadBoards(ctx, board.OwnerDID); err != nil {
		return err
	}
	return nil
}

// RemovePost unsaves a post. Removing an absent membership is a no-op.
func (s *boardService) RemovePost(ctx context.Context, boardID, postURI string) error {
	board, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		return err
	}

	if err := s.store.RemoveMembership(ctx, boardID, postURI); err != nil {
		return fmt.Errorf("failed to remove post from board: %w", err)
	}

	if _, err := s.LoadBoards(ctx, board.OwnerDID); err != nil {
		return err
	}
	return nil
}

func (s *boardService) Boards() []BoardWithPosts {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]BoardWithPosts, len(s.cached))
	copy(out, s.cached)
	return out
}

func (s *boardService) GetBoard(boardID string) (*BoardWithPosts, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cached {
		if s.cached[i].ID == boardID {
			view := s.cached[i]
			return &view, true
		}
	}
	return nil, false
}

func (s *boardService) BoardCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cached)
}

func (s *boardService) BoardsWithPost(postURI string) []BoardWithPosts {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []BoardWithPosts
	for _, b := range s.cached {
		for _, p := range b.Posts {
			if p.URI == postURI {
				out = append(out, b)
				break
			}
		}
	}
	return out
}

// uniqueURIs deduplicates membership URIs across all boards, preserving
// first-seen order
func uniqueURIs(memberships []Membership) []string {
	seen := make(map[string]struct{}, len(memberships))
	uris := make([]string, 0, len(memberships))
	for _, m := range memberships {
		if _, dup := seen[m.PostURI]; dup {
			continue
		}
		seen[m.PostURI] = struct{}{}
		uris = append(uris, m.PostURI)
	}
	return uris
}
