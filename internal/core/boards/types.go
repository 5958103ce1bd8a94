package boards

import (
	"context"
	"time"

	"skyframe/internal/core/posts"
)

// maxDescriptionLength bounds the user-editable board description
const maxDescriptionLength = 300

// Board is a user-owned named collection of saved posts
type Board struct {
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	ID          string    `json:"id" db:"id"`
	OwnerDID    string    `json:"ownerDid" db:"owner_did"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description,omitempty" db:"description"`
	IsPrivate   bool      `json:"isPrivate" db:"is_private"`
}

// Membership is one saved post inside a board. Unique per (board, URI).
type Membership struct {
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	BoardID   string    `json:"boardId" db:"board_id"`
	PostURI   string    `json:"postUri" db:"post_uri"`
}

// BoardWithPosts joins board metadata with its hydrated post content,
// ordered by membership recency
type BoardWithPosts struct {
	Board
	Posts []posts.Post `json:"posts"`
}

// BoardUpdate carries a partial board mutation; nil fields are untouched
type BoardUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPrivate   *bool   `json:"isPrivate,omitempty"`
}

// Store is the collection persistence abstraction. Two interchangeable
// implementations exist: a PostgreSQL store and an on-device SQLite
// store. Their semantics must not diverge.
type Store interface {
	// ListBoards returns a user's boards, newest first
	ListBoards(ctx context.Context, ownerDID string) ([]Board, error)

	// GetBoard returns a board by id; ErrBoardNotFound when absent
	GetBoard(ctx context.Context, id string) (*Board, error)

	// CreateBoard persists a new board row
	CreateBoard(ctx context.Context, b *Board) error

	// UpdateBoard applies the provided fields only; ErrBoardNotFound
	// when the board does not exist
	UpdateBoard(ctx context.Context, id string, fields BoardUpdate) (*Board, error)

	// DeleteBoard removes the board and all its membership rows in one
	// transaction; no orphan memberships may remain visible
	DeleteBoard(ctx context.Context, id string) error

	// AddMembership saves a post to a board. Idempotent: re-saving the
	// same URI succeeds without a second row.
	AddMembership(ctx context.Context, boardID, postURI string) error

	// RemoveMembership unsaves a post. Idempotent: removing an absent
	// membership is a no-op.
	RemoveMembership(ctx context.Context, boardID, postURI string) error

	// ListMemberships returns all membership rows for a user's boards,
	// newest first
	ListMemberships(ctx context.Context, ownerDID string) ([]Membership, error)
}

// PostHydrator fetches full post content for saved URIs. Implemented by
// the gateway; at most 25 URIs per call.
type PostHydrator interface {
	GetPosts(ctx context.Context, uris []string) ([]posts.Post, error)
}

// Service is the board aggregation surface. It owns the in-memory board
// list; every mutation reloads it so reads after a mutation are never
// stale.
type Service interface {
	// LoadBoards reads, hydrates and caches the owner's boards
	LoadBoards(ctx context.Context, ownerDID string) ([]BoardWithPosts, error)

	// Boards returns the cached board list from the last load
	Boards() []BoardWithPosts

	// CreateBoard validates and persists a new board
	CreateBoard(ctx context.Context, ownerDID, title, description string, isPrivate bool) (*Board, error)

	// UpdateBoard applies a partial update
	UpdateBoard(ctx context.Context, boardID string, fields BoardUpdate) (*Board, error)

	// DeleteBoard removes a board and all its saved posts
	DeleteBoard(ctx context.Context, boardID string) error

	// SavePost saves a post to a board; duplicate saves succeed as no-ops
	SavePost(ctx context.Context, boardID string, p posts.Post) error

	// RemovePost unsaves a post; absent memberships are no-ops
	RemovePost(ctx context.Context, boardID, postURI string) error

	// GetBoard returns a cached board view by id
	GetBoard(boardID string) (*BoardWithPosts, bool)

	// BoardCount returns the number of cached boards
	BoardCount() int

	// BoardsWithPost returns the cached boards containing a post
	BoardsWithPost(postURI string) []BoardWithPosts
}
