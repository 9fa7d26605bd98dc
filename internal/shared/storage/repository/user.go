package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"bloodbank-admin/internal/shared/model"
	"bloodbank-admin/internal/shared/storage/dbutil"
)

const userColumns = `id, email, password_hash, user_type, profile, created_at, updated_at`

// CreateUser 创建用户
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	profile, err := marshalProfile(user.Profile)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`),
		user.ID, user.Email, user.PasswordHash, string(user.UserType),
		profile, user.CreatedAt, user.UpdatedAt,
	)
	return s.wrapError(err)
}

// GetUserByEmail 通过邮箱查找用户（区分大小写）
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users WHERE email = $1`), email)
	return s.scanUserRow(row)
}

// GetUserByID 通过 ID 查找用户
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users WHERE id = $1`), id)
	return s.scanUserRow(row)
}

// GetUsersByIDs 批量查询用户
func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users WHERE id IN (`+dbutil.PlaceholderList(1, len(ids))+`)`),
		args...)
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// scanUserRow 扫描单行，不存在时返回 (nil, nil)
func (s *Store) scanUserRow(row *sql.Row) (*model.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrapError(err)
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	var userType string
	var profile []byte
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &userType,
		&profile, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.UserType = model.UserType(userType)
	if len(profile) > 0 {
		var fields map[string]any
		if err := json.Unmarshal(profile, &fields); err != nil {
			return nil, fmt.Errorf("decode profile of user %s: %w", u.ID, err)
		}
		u.Profile = model.SanitizeProfile(fields)
	}
	return u, nil
}

func marshalProfile(profile map[string]any) (string, error) {
	if len(profile) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	return string(data), nil
}
