// Package logger implements the logger destination: a persistent log of
// notable actions reported by the other services.
package logger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/newsbus/newsbus/contracts"
)

// Store is the persistence surface the logger service needs.
type Store interface {
	InsertLog(ctx context.Context, record contracts.LogRecord) error
	Logs(ctx context.Context, logType contracts.LogType, limit, offset int) ([]contracts.LogRecord, error)
	ClearLogs(ctx context.Context, logType contracts.LogType) (int64, error)
}

// SQLStore implements Store on MySQL.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) InsertLog(ctx context.Context, record contracts.LogRecord) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO logs (type, microservice, message, additional_info) VALUES (?, ?, ?, ?)",
		string(record.Type), record.Microservice, record.Message, record.AdditionalInfo)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

func (s *SQLStore) Logs(ctx context.Context, logType contracts.LogType, limit, offset int) ([]contracts.LogRecord, error) {
	query := "SELECT id, type, microservice, message, additional_info, created_at FROM logs"
	args := []any{}
	if logType != "" {
		query += " WHERE type = ?"
		args = append(args, string(logType))
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var records []contracts.LogRecord
	for rows.Next() {
		var r contracts.LogRecord
		var info sql.NullString
		if err := rows.Scan(&r.ID, &r.Type, &r.Microservice, &r.Message, &info, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.AdditionalInfo = info.String
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLStore) ClearLogs(ctx context.Context, logType contracts.LogType) (int64, error) {
	var res sql.Result
	var err error
	if logType == "" {
		res, err = s.db.ExecContext(ctx, "DELETE FROM logs")
	} else {
		res, err = s.db.ExecContext(ctx, "DELETE FROM logs WHERE type = ?", string(logType))
	}
	if err != nil {
		return 0, fmt.Errorf("clear logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear logs: %w", err)
	}
	return n, nil
}
