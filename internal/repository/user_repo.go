package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"todo-api/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	// Create asigna el ID y devuelve el usuario guardado.
	Create(ctx context.Context, user domain.User) (domain.User, error)
	Update(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	// GetByToken busca al usuario id que todavia tiene ese token en su lista.
	GetByToken(ctx context.Context, id string, token domain.AuthToken) (domain.User, error)
	AddToken(ctx context.Context, id string, token domain.AuthToken) error
	// RemoveToken quita una sola entrada; ErrNotFound si no quito nada.
	RemoveToken(ctx context.Context, id string, token string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	const query = `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`
	user.ID = uuid.NewString()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, ErrDuplicate
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *PgUserRepository) Update(ctx context.Context, user domain.User) error {
	if _, err := uuid.Parse(user.ID); err != nil {
		return ErrNotFound
	}
	const query = `
		UPDATE users SET email = $2, password_hash = $3
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, user.ID, user.Email, user.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.User{}, ErrNotFound
	}
	const query = `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`
	return r.getOne(ctx, query, email)
}

func (r *PgUserRepository) GetByToken(ctx context.Context, id string, token domain.AuthToken) (domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.User{}, ErrNotFound
	}
	const query = `
		SELECT u.id, u.email, u.password_hash, u.created_at
		FROM users u
		WHERE u.id = $1 AND EXISTS (
			SELECT 1 FROM user_tokens t
			WHERE t.user_id = u.id AND t.purpose = $2 AND t.token = $3
		)
	`
	return r.getOne(ctx, query, id, token.Purpose, token.Token)
}

func (r *PgUserRepository) AddToken(ctx context.Context, id string, token domain.AuthToken) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	const query = `
		INSERT INTO user_tokens (user_id, purpose, token, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, id, token.Purpose, token.Token, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("add token: %w", err)
	}
	return nil
}

func (r *PgUserRepository) RemoveToken(ctx context.Context, id string, token string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	const query = `
		DELETE FROM user_tokens
		WHERE id = (
			SELECT id FROM user_tokens
			WHERE user_id = $1 AND token = $2
			ORDER BY id
			LIMIT 1
		)
	`
	tag, err := r.pool.Exec(ctx, query, id, token)
	if err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) getOne(ctx context.Context, query string, args ...any) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	tokens, err := r.loadTokens(ctx, u.ID)
	if err != nil {
		return domain.User{}, err
	}
	u.Tokens = tokens
	return u, nil
}

func (r *PgUserRepository) loadTokens(ctx context.Context, userID string) ([]domain.AuthToken, error) {
	const query = `
		SELECT purpose, token
		FROM user_tokens
		WHERE user_id = $1
		ORDER BY id ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("load tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.AuthToken
	for rows.Next() {
		var t domain.AuthToken
		if err := rows.Scan(&t.Purpose, &t.Token); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
