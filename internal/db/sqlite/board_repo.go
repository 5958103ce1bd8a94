// Package sqlite provides the on-device collection store, the deployment
// target where boards live entirely on the user's machine. Interchangeable
// with the PostgreSQL store; semantics must not diverge.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"skyframe/internal/core/boards"
)

const schema = `
CREATE TABLE IF NOT EXISTS boards (
	id TEXT PRIMARY KEY,
	owner_did TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	is_private INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_boards_owner ON boards(owner_did, created_at);

CREATE TABLE IF NOT EXISTS board_posts (
	board_id TEXT NOT NULL,
	post_uri TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (board_id, post_uri)
);
`

// Open opens (creating if needed) the on-device board database at path
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

type sqliteBoardRepo struct {
	db *sql.DB
}

// NewBoardRepository creates a SQLite-backed collection store
func NewBoardRepository(db *sql.DB) boards.Store {
	return &sqliteBoardRepo{db: db}
}

func (r *sqliteBoardRepo) ListBoards(ctx context.Context, ownerDID string) ([]boards.Board, error) {
	query := `
		SELECT id, owner_did, title, description, is_private, created_at, updated_at
		FROM boards
		WHERE owner_did = ?
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

func (r *sqliteBoardRepo) GetBoard(ctx context.Context, id string) (*boards.Board, error) {
	query := `
		SELECT id, owner_did, title, description, is_private, created_at, updated_at
		FROM boards
		WHERE id = ?
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

func (r *sqliteBoardRepo) CreateBoard(ctx context.Context, b *boards.Board) error {
	query := `
		INSERT INTO boards (id, owner_did, title, description, is_private, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.OwnerDID, b.Title, b.Description, b.IsPrivate, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert board: %w", err)
	}
	return nil
}

func (r *sqliteBoardRepo) UpdateBoard(ctx context.Context, id string, fields boards.BoardUpdate) (*boards.Board, error) {
	query := `
		UPDATE boards
		SET title = COALESCE(?, title),
		    description = COALESCE(?, description),
		    is_private = COALESCE(?, is_private),
		    updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, fields.Title, fields.Description, fields.IsPrivate, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return nil, boards.ErrBoardNotFound
	}

	return r.GetBoard(ctx, id)
}

func (r *sqliteBoardRepo) DeleteBoard(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM board_posts WHERE board_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete board memberships: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
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

func (r *sqliteBoardRepo) AddMembership(ctx context.Context, boardID, postURI string) error {
	query := `
		INSERT OR IGNORE INTO board_posts (board_id, post_uri, created_at)
		VALUES (?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, boardID, postURI, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

func (r *sqliteBoardRepo) RemoveMembership(ctx context.Context, boardID, postURI string) error {
	query := `DELETE FROM board_posts WHERE board_id = ? AND post_uri = ?`

	if _, err := r.db.ExecContext(ctx, query, boardID, postURI); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}

func (r *sqliteBoardRepo) ListMemberships(ctx context.Context, ownerDID string) ([]boards.Membership, error) {
	query := `
		SELECT bp.board_id, bp.post_uri, bp.created_at
		FROM board_posts bp
		JOIN boards b ON b.id = bp.board_id
		WHERE b.owner_did = ?
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
