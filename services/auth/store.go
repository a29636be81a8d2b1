// Package auth implements the auth destination: identity, credentials,
// profiles and the subscription graph.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/newsbus/newsbus/contracts"
)

const mysqlDuplicateEntry = 1062

// Store is the persistence surface the auth service needs.
type Store interface {
	CreateUser(ctx context.Context, username, email, passwordHash, role string) (*contracts.User, error)
	UserByEmail(ctx context.Context, email string) (*contracts.User, string, error)
	UserByID(ctx context.Context, id int64) (*contracts.User, error)
	UsersByIDs(ctx context.Context, ids []int64) ([]contracts.User, error)
	AllUsers(ctx context.Context, limit, offset int) ([]contracts.User, error)
	SearchUsers(ctx context.Context, username, email string) ([]contracts.User, error)
	UpdateProfile(ctx context.Context, id int64, username, email string) (*contracts.User, error)
	UpdateAvatar(ctx context.Context, id int64, avatar string) (*contracts.User, error)
	DeleteUser(ctx context.Context, id int64) error
	Subscriptions(ctx context.Context, userID int64) (subscriberIDs, subscriptionIDs []int64, err error)
	ToggleSubscription(ctx context.Context, userID, targetID int64) (subscribed bool, err error)
}

// SQLStore implements Store on MySQL.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const userColumns = "id, username, email, role, avatar, created_at"

func scanUser(row interface{ Scan(...any) error }) (*contracts.User, error) {
	var u contracts.User
	var avatar sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &avatar, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Avatar = avatar.String
	return &u, nil
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

func (s *SQLStore) CreateUser(ctx context.Context, username, email, passwordHash, role string) (*contracts.User, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role) VALUES (?, ?, ?, ?)",
		username, email, passwordHash, role)
	if err != nil {
		if isDuplicate(err) {
			return nil, contracts.NewConflictError("user with this email or username already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.UserByID(ctx, id)
}

func (s *SQLStore) UserByEmail(ctx context.Context, email string) (*contracts.User, string, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+", password_hash FROM users WHERE email = ?", email)

	var u contracts.User
	var avatar sql.NullString
	var hash string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &avatar, &u.CreatedAt, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", contracts.NewNotFoundError("user with email %s not found", email)
	}
	if err != nil {
		return nil, "", fmt.Errorf("user by email: %w", err)
	}
	u.Avatar = avatar.String
	return &u, hash, nil
}

func (s *SQLStore) UserByID(ctx context.Context, id int64) (*contracts.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.NewNotFoundError("user %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("user by id: %w", err)
	}
	return u, nil
}

func (s *SQLStore) UsersByIDs(ctx context.Context, ids []int64) ([]contracts.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("users by ids: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (s *SQLStore) AllUsers(ctx context.Context, limit, offset int) ([]contracts.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("all users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (s *SQLStore) SearchUsers(ctx context.Context, username, email string) ([]contracts.User, error) {
	var conds []string
	var args []any
	if username != "" {
		conds = append(conds, "username LIKE ?")
		args = append(args, "%"+username+"%")
	}
	if email != "" {
		conds = append(conds, "email LIKE ?")
		args = append(args, "%"+email+"%")
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+strings.Join(conds, " OR ")+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (s *SQLStore) UpdateProfile(ctx context.Context, id int64, username, email string) (*contracts.User, error) {
	var sets []string
	var args []any
	if username != "" {
		sets = append(sets, "username = ?")
		args = append(args, username)
	}
	if email != "" {
		sets = append(sets, "email = ?")
		args = append(args, email)
	}
	if len(sets) > 0 {
		args = append(args, id)
		_, err := s.db.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			if isDuplicate(err) {
				return nil, contracts.NewConflictError("user with this email or username already exists")
			}
			return nil, fmt.Errorf("update profile: %w", err)
		}
	}
	return s.UserByID(ctx, id)
}

func (s *SQLStore) UpdateAvatar(ctx context.Context, id int64, avatar string) (*contracts.User, error) {
	_, err := s.db.ExecContext(ctx, "UPDATE users SET avatar = ? WHERE id = ?", avatar, id)
	if err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	return s.UserByID(ctx, id)
}

func (s *SQLStore) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE user_id = ? OR subscription_user_id = ?", id, id); err != nil {
		return fmt.Errorf("delete user subscriptions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) Subscriptions(ctx context.Context, userID int64) ([]int64, []int64, error) {
	subscribers, err := s.collectIDs(ctx,
		"SELECT user_id FROM subscriptions WHERE subscription_user_id = ?", userID)
	if err != nil {
		return nil, nil, fmt.Errorf("subscribers: %w", err)
	}
	subscriptions, err := s.collectIDs(ctx,
		"SELECT subscription_user_id FROM subscriptions WHERE user_id = ?", userID)
	if err != nil {
		return nil, nil, fmt.Errorf("subscriptions: %w", err)
	}
	return subscribers, subscriptions, nil
}

func (s *SQLStore) ToggleSubscription(ctx context.Context, userID, targetID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE user_id = ? AND subscription_user_id = ?", userID, targetID)
	if err != nil {
		return false, fmt.Errorf("toggle subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO subscriptions (user_id, subscription_user_id) VALUES (?, ?)", userID, targetID)
	if err != nil {
		if isDuplicate(err) {
			// Concurrent toggle won the insert.
			return true, nil
		}
		return false, fmt.Errorf("toggle subscription: %w", err)
	}
	return true, nil
}

func (s *SQLStore) collectIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectUsers(rows *sql.Rows) ([]contracts.User, error) {
	var users []contracts.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
