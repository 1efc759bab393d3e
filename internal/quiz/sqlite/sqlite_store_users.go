package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quizhub/internal/auth"
)

func (s *SQLiteStore) CreateUser(ctx context.Context, user auth.User) (auth.User, error) {
	user.CreatedAt = s.now()
	result, err := s.db.ExecContext(
		ctx,
		`INSERT INTO users (username, email, password_hash, is_admin, created_at_unix)
		 VALUES (?, ?, ?, ?, ?)`,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.CreatedAt.UnixNano(),
	)
	if err != nil {
		return auth.User{}, classify(err, auth.ErrDuplicateAccount)
	}
	if user.ID, err = result.LastInsertId(); err != nil {
		return auth.User{}, err
	}
	return user, nil
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, userID int64) (auth.User, error) {
	return s.getUser(ctx, `WHERE id = ?`, userID)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (auth.User, error) {
	return s.getUser(ctx, `WHERE email = ?`, email)
}

func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (auth.User, error) {
	return s.getUser(ctx, `WHERE username = ?`, username)
}

func (s *SQLiteStore) SetAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET is_admin = ? WHERE id = ?`, isAdmin, userID)
	if err != nil {
		return classify(err, nil)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("user %d: %w", userID, auth.ErrUserNotFound)
	}
	return nil
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (auth.User, error) {
	var (
		user          auth.User
		createdAtUnix int64
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, username, email, password_hash, is_admin, created_at_unix FROM users `+where,
		arg,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.IsAdmin, &createdAtUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.User{}, err
	}
	user.CreatedAt = fromUnixNano(createdAtUnix)
	return user, nil
}
