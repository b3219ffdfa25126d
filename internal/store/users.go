// Package store holds the SQL-backed collaborator stores: users, per-user
// progress, immutable test results and the domain event log. All statements
// use $1-style placeholders, which both supported drivers accept.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/coursepilot/coursepilot-lms/internal/auth"
)

type UserStore struct{ db *sql.DB }

func NewUserStore(db *sql.DB) *UserStore { return &UserStore{db: db} }

func (s *UserStore) FindByLogin(ctx context.Context, login string) (auth.User, string, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, login, password_hash, COALESCE(full_name,''), role FROM users WHERE login=$1`,
		strings.TrimSpace(login))
	var u auth.User
	var hash string
	if err := row.Scan(&u.ID, &u.Login, &hash, &u.FullName, &u.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.User{}, "", false, nil
		}
		return auth.User{}, "", false, fmt.Errorf("find user by login: %w", err)
	}
	return u, hash, true, nil
}

func (s *UserStore) ExistsByLogin(ctx context.Context, login string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE login=$1`, strings.TrimSpace(login)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check user existence: %w", err)
	}
	return n > 0, nil
}

func (s *UserStore) Create(ctx context.Context, login, passwordHash, fullName, role string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (login, password_hash, full_name, role) VALUES ($1,$2,$3,$4) RETURNING id`,
		strings.TrimSpace(login), passwordHash, strings.TrimSpace(fullName), role).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

func (s *UserStore) List(ctx context.Context) ([]auth.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, login, COALESCE(full_name,''), role FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := []auth.User{}
	for rows.Next() {
		var u auth.User
		if err := rows.Scan(&u.ID, &u.Login, &u.FullName, &u.Role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// EnsureAdmin inserts the bootstrap admin account when no user carries that
// login yet. The hash comes from config, pre-computed with bcrypt.
func (s *UserStore) EnsureAdmin(ctx context.Context, login, passwordHash string) error {
	exists, err := s.ExistsByLogin(ctx, login)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = s.Create(ctx, login, passwordHash, "Administrator", auth.RoleAdmin)
	return err
}
