// Package news implements the news destination: news items, their view
// counters and the two-phase hand-off of file references.
package news

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/newsbus/newsbus/contracts"
)

// Store is the persistence surface the news service needs.
type Store interface {
	CreateNews(ctx context.Context, authorID int64, title, body string, hasFiles bool) (*contracts.News, error)
	NewsByID(ctx context.Context, id int64) (*contracts.News, error)
	AllNews(ctx context.Context, limit, offset int) ([]contracts.News, error)
	SearchNews(ctx context.Context, title, body string, limit, offset int) ([]contracts.News, int64, error)
	NewsByAuthors(ctx context.Context, authorIDs []int64, limit, offset int) ([]contracts.News, error)
	IncrementViews(ctx context.Context, id int64) error
	UpdateNews(ctx context.Context, item *contracts.News) (*contracts.News, error)
	DeleteNews(ctx context.Context, id int64) error
}

// SQLStore implements Store on MySQL.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const newsColumns = "id, author_id, title, body, views, has_files, created_at, updated_at"

func scanNews(row interface{ Scan(...any) error }) (*contracts.News, error) {
	var n contracts.News
	err := row.Scan(&n.ID, &n.AuthorID, &n.Title, &n.Body, &n.Views, &n.HasFiles, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *SQLStore) CreateNews(ctx context.Context, authorID int64, title, body string, hasFiles bool) (*contracts.News, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO news (author_id, title, body, has_files) VALUES (?, ?, ?, ?)",
		authorID, title, body, hasFiles)
	if err != nil {
		return nil, fmt.Errorf("create news: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create news: %w", err)
	}
	return s.NewsByID(ctx, id)
}

func (s *SQLStore) NewsByID(ctx context.Context, id int64) (*contracts.News, error) {
	n, err := scanNews(s.db.QueryRowContext(ctx,
		"SELECT "+newsColumns+" FROM news WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.NewNotFoundError("news %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("news by id: %w", err)
	}
	return n, nil
}

func (s *SQLStore) AllNews(ctx context.Context, limit, offset int) ([]contracts.News, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+newsColumns+" FROM news ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("all news: %w", err)
	}
	defer rows.Close()

	return collectNews(rows)
}

func (s *SQLStore) SearchNews(ctx context.Context, title, body string, limit, offset int) ([]contracts.News, int64, error) {
	var conds []string
	var args []any
	if title != "" {
		conds = append(conds, "title LIKE ?")
		args = append(args, "%"+title+"%")
	}
	if body != "" {
		conds = append(conds, "body LIKE ?")
		args = append(args, "%"+body+"%")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " OR ")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM news"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("search news count: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+newsColumns+" FROM news"+where+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search news: %w", err)
	}
	defer rows.Close()

	items, err := collectNews(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *SQLStore) NewsByAuthors(ctx context.Context, authorIDs []int64, limit, offset int) ([]contracts.News, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(authorIDs)-1) + "?"
	args := make([]any, 0, len(authorIDs)+2)
	for _, id := range authorIDs {
		args = append(args, id)
	}
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+newsColumns+" FROM news WHERE author_id IN ("+placeholders+
			") ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, fmt.Errorf("news by authors: %w", err)
	}
	defer rows.Close()

	return collectNews(rows)
}

func (s *SQLStore) IncrementViews(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE news SET views = views + 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateNews(ctx context.Context, item *contracts.News) (*contracts.News, error) {
	_, err := s.db.ExecContext(ctx,
		"UPDATE news SET title = ?, body = ?, has_files = ?, updated_at = NOW() WHERE id = ?",
		item.Title, item.Body, item.HasFiles, item.ID)
	if err != nil {
		return nil, fmt.Errorf("update news: %w", err)
	}
	return s.NewsByID(ctx, item.ID)
}

func (s *SQLStore) DeleteNews(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM news WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete news: %w", err)
	}
	return nil
}

func collectNews(rows *sql.Rows) ([]contracts.News, error) {
	var items []contracts.News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	return items, rows.Err()
}
