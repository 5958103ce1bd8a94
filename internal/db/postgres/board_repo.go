package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"skyframe/internal/core/boards"
)

type postgresBoardRepo struct {
	db *sql.DB
}

// NewBoardRepository creates a PostgreSQL-backed collection store
func NewBoardRepository(db *sql.DB) boards.Store {
	return &postgresBoardRepo{db: db}
}

// ListBoards returns a user's boards, newest first
func (r *postgresBoardRepo) ListBoards(ctx context.Context, ownerDID string) ([]boards.Board, error) {
	query := `
		SELECT id, owner_did, title, description, is_private, created_at, updated_at
		FROM boards
		WHERE owner_did = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerDID)
	if err != nil {
		return nil, fmt.Errorf("failed to query boards: %w", err)
	}
	defer rows.Close()

	var result []boards.Board
	for rows.Next() {
		var b boards.Board
		if err := rows.Scan(&b.ID, &b.OwnerDID, &b.Title, &b.Description, &b.IsPrivate, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// GetBoard returns a board by id
func (r *postgresBoardRepo) GetBoard(ctx context.Context, id string) (*boards.Board, error) {
	query := `
		SELECT id, owner_did, title, description, is_private, created_at, updated_at
		FROM boards
		WHERE id = $1
	`

	var b boards.Board
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.OwnerDID, &b.Title, &b.Description, &b.IsPrivate, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, boards.ErrBoardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return &b, nil
}

// CreateBoard inserts a new board row
func (r *postgresBoardRepo) CreateBoard(ctx context.Context, b *boards.Board) error {
	query := `
		INSERT INTO boards (id, owner_did, title, description, is_private, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.OwnerDID, b.Title, b.Description, b.IsPrivate, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert board: %w", err)
	}
	return nil
}

// UpdateBoard applies only the provided fields and bumps updated_at
func (r *postgresBoardRepo) UpdateBoard(ctx context.Context, id string, fields boards.BoardUpdate) (*boards.Board, error) {
	query := `
		UPDATE boards
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    is_private = COALESCE($4, is_private),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, owner_did, title, description, is_private, created_at, updated_at
	`

	var b boards.Board
	err := r.db.QueryRowContext(ctx, query, id, fields.Title, fields.Description, fields.IsPrivate).Scan(
		&b.ID, &b.OwnerDID, &b.Title, &b.Description, &b.IsPrivate, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, boards.ErrBoardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}
	return &b, nil
}

// DeleteBoard removes the board and its memberships in one transaction so
// no orphan membership rows are ever visible
func (r *postgresBoardRepo) DeleteBoard(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM board_posts WHERE board_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete board memberships: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return boards.ErrBoardNotFound
	}

	return tx.Commit()
}

// AddMembership saves a post to a board. ON CONFLICT DO NOTHING makes
// duplicate saves idempotent.
func (r *postgresBoardRepo) AddMembership(ctx context.Context, boardID, postURI string) error {
	query := `
		INSERT INTO board_posts (board_id, post_uri, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (board_id, post_uri) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, boardID, postURI); err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// RemoveMembership unsaves a post. Removing an absent row is a no-op.
func (r *postgresBoardRepo) RemoveMembership(ctx context.Context, boardID, postURI string) error {
	query := `DELETE FROM board_posts WHERE board_id = $1 AND post_uri = $2`

	if _, err := r.db.ExecContext(ctx, query, boardID, postURI); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}

// ListMemberships returns all membership rows for a user's boards,
// newest first
func (r *postgresBoardRepo) ListMemberships(ctx context.Context, ownerDID string) ([]boards.Membership, error) {
	query := `
		SELECT bp.board_id, bp.post_uri, bp.created_at
		FROM board_posts bp
		JOIN boards b ON b.id = bp.board_id
		WHERE b.owner_did = $1
		ORDER BY bp.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerDID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var result []boards.Membership
	for rows.Next() {
		var m boards.Membership
		if err := rows.Scan(&m.BoardID, &m.PostURI, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
