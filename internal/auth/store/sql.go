package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/likhith1253/chemicalanalyzer/internal/auth/entity"
	"github.com/likhith1253/chemicalanalyzer/internal/auth/usecase"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgerror"
)

type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

type userRow struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	DateJoined   int64  `db:"date_joined"`
}

type tokenRow struct {
	Key       string `db:"token_key"`
	UserID    int64  `db:"user_id"`
	CreatedAt int64  `db:"created_at"`
}

func (s *SQLStore) CreateUser(ctx context.Context, u entity.User) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO users (id, username, email, password_hash, date_joined)
		VALUES (:id, :username, :email, :password_hash, :date_joined)`, userRow{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		DateJoined:   u.DateJoined.UnixNano(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return usecase.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLStore) GetUserByID(ctx context.Context, id int64) (entity.User, error) {
	return s.getUser(ctx, `SELECT id, username, email, password_hash, date_joined FROM users WHERE id = ?`, id)
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (entity.User, error) {
	return s.getUser(ctx, `SELECT id, username, email, password_hash, date_joined FROM users WHERE username = ?`, username)
}

func (s *SQLStore) getUser(ctx context.Context, query string, arg any) (entity.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.User{}, pkgerror.ErrNotFound
		}
		return entity.User{}, fmt.Errorf("get user: %w", err)
	}

	return entity.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		DateJoined:   time.Unix(0, row.DateJoined).UTC(),
	}, nil
}

func (s *SQLStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM users WHERE email = ?`), email); err != nil {
		return false, fmt.Errorf("count users by email: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) CreateToken(ctx context.Context, t entity.Token) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO auth_tokens (token_key, user_id, created_at)
		VALUES (:token_key, :user_id, :created_at)`, tokenRow{
		Key:       t.Key,
		UserID:    t.UserID,
		CreatedAt: t.CreatedAt.UnixNano(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return usecase.ErrDuplicate
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (s *SQLStore) GetToken(ctx context.Context, key string) (entity.Token, error) {
	return s.getToken(ctx, `SELECT token_key, user_id, created_at FROM auth_tokens WHERE token_key = ?`, key)
}

func (s *SQLStore) GetTokenByUser(ctx context.Context, userID int64) (entity.Token, error) {
	return s.getToken(ctx, `SELECT token_key, user_id, created_at FROM auth_tokens WHERE user_id = ?`, userID)
}

func (s *SQLStore) getToken(ctx context.Context, query string, arg any) (entity.Token, error) {
	var row tokenRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Token{}, pkgerror.ErrNotFound
		}
		return entity.Token{}, fmt.Errorf("get token: %w", err)
	}

	return entity.Token{Key: row.Key, UserID: row.UserID, CreatedAt: time.Unix(0, row.CreatedAt).UTC()}, nil
}

func (s *SQLStore) DeleteToken(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM auth_tokens WHERE token_key = ?`), key)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return pkgerror.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
