package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"LIBRA-backend/internal/platform/db"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID           uint64    `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User) error
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uint64) (int64, error)
}

type Store struct{ db db.DBTX }

func NewStore(q db.DBTX) UserStore {
	return &Store{db: q}
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	const q = `
SELECT id, username, password_hash, role, created_at
FROM users
WHERE username = ?
LIMIT 1
`
	var u User
	err := s.db.GetContext(ctx, &u, q, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) Create(ctx context.Context, u *User) error {
	const q = `INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q, u.Username, u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

func (s *Store) Delete(ctx context.Context, id uint64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
