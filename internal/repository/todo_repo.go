package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"todo-api/internal/domain"
)

// TodoRepository define el contrato de persistencia para tareas. Toda lectura
// y escritura va filtrada por dueño.
type TodoRepository interface {
	Create(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Todo, error)
	GetByID(ctx context.Context, ownerID, id string) (domain.Todo, error)
	Update(ctx context.Context, ownerID, id string, patch domain.TodoPatch) (domain.Todo, error)
	Delete(ctx context.Context, ownerID, id string) (domain.Todo, error)
}

// PgTodoRepository implementa TodoRepository usando pgxpool.
type PgTodoRepository struct {
	pool *pgxpool.Pool
}

func NewPgTodoRepository(pool *pgxpool.Pool) *PgTodoRepository {
	return &PgTodoRepository{pool: pool}
}

const todoColumns = `id, text, completed, completed_at, owner_id, created_at`

func (r *PgTodoRepository) Create(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	if _, err := uuid.Parse(todo.OwnerID); err != nil {
		return domain.Todo{}, fmt.Errorf("create todo: invalid owner id %q", todo.OwnerID)
	}
	const query = `
		INSERT INTO todos (id, text, completed, completed_at, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	todo.ID = uuid.NewString()
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, query,
		todo.ID,
		todo.Text,
		todo.Completed,
		todo.CompletedAt,
		todo.OwnerID,
		todo.CreatedAt,
	)
	if err != nil {
		return domain.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return todo, nil
}

func (r *PgTodoRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	if _, err := uuid.Parse(ownerID); err != nil {
		return []domain.Todo{}, nil
	}
	query := `SELECT ` + todoColumns + ` FROM todos WHERE owner_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := []domain.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return todos, nil
}

func (r *PgTodoRepository) GetByID(ctx context.Context, ownerID, id string) (domain.Todo, error) {
	if !validUUIDs(ownerID, id) {
		return domain.Todo{}, ErrNotFound
	}
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND owner_id = $2`
	return scanOneTodo(r.pool.QueryRow(ctx, query, id, ownerID))
}

func (r *PgTodoRepository) Update(ctx context.Context, ownerID, id string, patch domain.TodoPatch) (domain.Todo, error) {
	if !validUUIDs(ownerID, id) {
		return domain.Todo{}, ErrNotFound
	}
	// completed_at se reescribe solo cuando el patch trae completed
	query := `
		UPDATE todos SET
			text = COALESCE($3, text),
			completed = COALESCE($4, completed),
			completed_at = CASE WHEN $4::boolean IS NULL THEN completed_at ELSE $5::bigint END
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + todoColumns
	row := r.pool.QueryRow(ctx, query, id, ownerID, patch.Text, patch.Completed, patch.CompletedAt)
	return scanOneTodo(row)
}

func (r *PgTodoRepository) Delete(ctx context.Context, ownerID, id string) (domain.Todo, error) {
	if !validUUIDs(ownerID, id) {
		return domain.Todo{}, ErrNotFound
	}
	query := `DELETE FROM todos WHERE id = $1 AND owner_id = $2 RETURNING ` + todoColumns
	return scanOneTodo(r.pool.QueryRow(ctx, query, id, ownerID))
}

func scanOneTodo(row pgx.Row) (domain.Todo, error) {
	todo, err := scanTodo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Todo{}, ErrNotFound
	}
	return todo, err
}

func scanTodo(row pgx.Row) (domain.Todo, error) {
	var todo domain.Todo
	err := row.Scan(
		&todo.ID,
		&todo.Text,
		&todo.Completed,
		&todo.CompletedAt,
		&todo.OwnerID,
		&todo.CreatedAt,
	)
	return todo, err
}

func validUUIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}
