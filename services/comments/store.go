// Package comments implements the comments destination: one-level comment
// trees attached to news items.
package comments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/newsbus/newsbus/contracts"
)

// Store is the persistence surface the comments service needs.
type Store interface {
	CreateComment(ctx context.Context, newsID, authorID, parentID int64, text string) (*contracts.Comment, error)
	CommentByID(ctx context.Context, id int64) (*contracts.Comment, error)
	AllComments(ctx context.Context, limit, offset int) ([]contracts.Comment, error)
	NewsComments(ctx context.Context, newsID int64, limit, offset int) ([]contracts.Comment, error)
	UpdateComment(ctx context.Context, id int64, text string) (*contracts.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

// SQLStore implements Store on MySQL.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const commentColumns = "id, news_id, author_id, parent_comment_id, text, created_at"

func scanComment(row interface{ Scan(...any) error }) (*contracts.Comment, error) {
	var c contracts.Comment
	var parent sql.NullInt64
	if err := row.Scan(&c.ID, &c.NewsID, &c.AuthorID, &parent, &c.Text, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.ParentCommentID = parent.Int64
	return &c, nil
}

func (s *SQLStore) CreateComment(ctx context.Context, newsID, authorID, parentID int64, text string) (*contracts.Comment, error) {
	var parent any
	if parentID != 0 {
		parent = parentID
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO comments (news_id, author_id, parent_comment_id, text) VALUES (?, ?, ?, ?)",
		newsID, authorID, parent, text)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return s.CommentByID(ctx, id)
}

func (s *SQLStore) CommentByID(ctx context.Context, id int64) (*contracts.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.NewNotFoundError("comment %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("comment by id: %w", err)
	}

	if err := s.attachReplies(ctx, []*contracts.Comment{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLStore) AllComments(ctx context.Context, limit, offset int) ([]contracts.Comment, error) {
	return s.listTopLevel(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE parent_comment_id IS NULL"+
			" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?", limit, offset)
}

func (s *SQLStore) NewsComments(ctx context.Context, newsID int64, limit, offset int) ([]contracts.Comment, error) {
	return s.listTopLevel(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE news_id = ? AND parent_comment_id IS NULL"+
			" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?", newsID, limit, offset)
}

func (s *SQLStore) UpdateComment(ctx context.Context, id int64, text string) (*contracts.Comment, error) {
	_, err := s.db.ExecContext(ctx, "UPDATE comments SET text = ? WHERE id = ?", text, id)
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return s.CommentByID(ctx, id)
}

func (s *SQLStore) DeleteComment(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM comments WHERE parent_comment_id = ?", id); err != nil {
		return fmt.Errorf("delete comment replies: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) listTopLevel(ctx context.Context, query string, args ...any) ([]contracts.Comment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var parents []*contracts.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		parents = append(parents, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachReplies(ctx, parents); err != nil {
		return nil, err
	}

	out := make([]contracts.Comment, len(parents))
	for i, p := range parents {
		out[i] = *p
	}
	return out, nil
}

// attachReplies loads the one reply level under the given comments with a
// single query.
func (s *SQLStore) attachReplies(ctx context.Context, parents []*contracts.Comment) error {
	if len(parents) == 0 {
		return nil
	}

	byID := make(map[int64]*contracts.Comment, len(parents))
	placeholders := strings.Repeat("?,", len(parents)-1) + "?"
	args := make([]any, len(parents))
	for i, p := range parents {
		byID[p.ID] = p
		args[i] = p.ID
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE parent_comment_id IN ("+placeholders+
			") ORDER BY created_at, id", args...)
	if err != nil {
		return fmt.Errorf("load replies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return err
		}
		if parent, ok := byID[c.ParentCommentID]; ok {
			parent.Replies = append(parent.Replies, *c)
		}
	}
	return rows.Err()
}
