// Package files implements the files destination: file URL records keyed
// by news item.
package files

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/newsbus/newsbus/contracts"
)

// Store is the persistence surface the files service needs.
type Store interface {
	ReplaceFiles(ctx context.Context, newsID int64, urls []string) error
	FilesByNewsID(ctx context.Context, newsID int64) ([]string, error)
	FilesByNewsIDs(ctx context.Context, newsIDs []int64) ([]contracts.NewsFiles, error)
	DeleteFiles(ctx context.Context, newsID int64) error
}

// SQLStore implements Store on MySQL.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// ReplaceFiles swaps the full file set for a news item in one transaction.
func (s *SQLStore) ReplaceFiles(ctx context.Context, newsID int64, urls []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace files: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM news_files WHERE news_id = ?", newsID); err != nil {
		return fmt.Errorf("replace files: %w", err)
	}
	for _, url := range urls {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO news_files (news_id, url) VALUES (?, ?)", newsID, url); err != nil {
			return fmt.Errorf("replace files: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) FilesByNewsID(ctx context.Context, newsID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT url FROM news_files WHERE news_id = ? ORDER BY id", newsID)
	if err != nil {
		return nil, fmt.Errorf("files by news id: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

func (s *SQLStore) FilesByNewsIDs(ctx context.Context, newsIDs []int64) ([]contracts.NewsFiles, error) {
	if len(newsIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(newsIDs)-1) + "?"
	args := make([]any, len(newsIDs))
	for i, id := range newsIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT news_id, url FROM news_files WHERE news_id IN ("+placeholders+") ORDER BY news_id, id",
		args...)
	if err != nil {
		return nil, fmt.Errorf("files by news ids: %w", err)
	}
	defer rows.Close()

	byNews := make(map[int64][]string)
	var order []int64
	for rows.Next() {
		var newsID int64
		var url string
		if err := rows.Scan(&newsID, &url); err != nil {
			return nil, err
		}
		if _, seen := byNews[newsID]; !seen {
			order = append(order, newsID)
		}
		byNews[newsID] = append(byNews[newsID], url)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]contracts.NewsFiles, 0, len(order))
	for _, newsID := range order {
		out = append(out, contracts.NewsFiles{NewsID: newsID, Files: byNews[newsID]})
	}
	return out, nil
}

func (s *SQLStore) DeleteFiles(ctx context.Context, newsID int64) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM news_files WHERE news_id = ?", newsID); err != nil {
		return fmt.Errorf("delete files: %w", err)
	}
	return nil
}
