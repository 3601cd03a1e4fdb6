package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"postcode-tracker/internal/domain"
)

// SQLite-backed implementation of the UserRepository port.
type SqliteUserRepository struct{ DB *sql.DB }

func NewSqliteUserRepository(db *sql.DB) *SqliteUserRepository {
	return &SqliteUserRepository{DB: db}
}

func (s *SqliteUserRepository) CreateUser(ctx context.Context, u *domain.User) error {
	if s.DB == nil {
		return errors.New("sqlite user repository: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?);`,
		u.Username, u.PasswordHash, u.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user %q: %w", u.Username, domain.ErrUsernameTaken)
		}
		return fmt.Errorf("create user %q: insert: %w", u.Username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user %q: last insert id: %w", u.Username, err)
	}
	u.ID = id

	return nil
}

func (s *SqliteUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUser(ctx, `WHERE username = ?`, username)
}

func (s *SqliteUserRepository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.getUser(ctx, `WHERE id = ?`, id)
}

func (s *SqliteUserRepository) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite user repository: DB is nil")
	}

	var u domain.User
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users `+where+`;`, arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user %v: %w", arg, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %v: scan row: %w", arg, err)
	}

	return &u, nil
}
