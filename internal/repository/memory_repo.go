package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"todo-api/internal/domain"
)

// MemoryUserRepository guarda usuarios en memoria; util para desarrollo y tests.
type MemoryUserRepository struct {
	mu      sync.Mutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (m *MemoryUserRepository) Create(_ context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byEmail[user.Email]; taken {
		return domain.User{}, ErrDuplicate
	}
	user.ID = uuid.NewString()
	user.Password = ""
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Tokens = cloneTokens(user.Tokens)
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user.ID
	return cloneUser(user), nil
}

func (m *MemoryUserRepository) Update(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[user.ID]
	if !ok {
		return ErrNotFound
	}
	if owner, taken := m.byEmail[user.Email]; taken && owner != user.ID {
		return ErrDuplicate
	}
	delete(m.byEmail, stored.Email)
	stored.Email = user.Email
	stored.PasswordHash = user.PasswordHash
	m.byID[user.ID] = stored
	m.byEmail[stored.Email] = user.ID
	return nil
}

func (m *MemoryUserRepository) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return cloneUser(user), nil
}

func (m *MemoryUserRepository) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return cloneUser(m.byID[id]), nil
}

func (m *MemoryUserRepository) GetByToken(_ context.Context, id string, token domain.AuthToken) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok || !user.HasToken(token) {
		return domain.User{}, ErrNotFound
	}
	return cloneUser(user), nil
}

func (m *MemoryUserRepository) AddToken(_ context.Context, id string, token domain.AuthToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	user.Tokens = append(user.Tokens, token)
	m.byID[id] = user
	return nil
}

func (m *MemoryUserRepository) RemoveToken(_ context.Context, id string, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	for i, t := range user.Tokens {
		if t.Token == token {
			user.Tokens = append(user.Tokens[:i:i], user.Tokens[i+1:]...)
			m.byID[id] = user
			return nil
		}
	}
	return ErrNotFound
}

// Ping permite usar el repositorio en memoria como chequeo de readiness.
func (m *MemoryUserRepository) Ping(_ context.Context) error {
	return nil
}

// MemoryTodoRepository guarda tareas en memoria.
type MemoryTodoRepository struct {
	mu    sync.Mutex
	todos map[string]domain.Todo
}

func NewMemoryTodoRepository() *MemoryTodoRepository {
	return &MemoryTodoRepository{todos: make(map[string]domain.Todo)}
}

func (m *MemoryTodoRepository) Create(_ context.Context, todo domain.Todo) (domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	todo.ID = uuid.NewString()
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = time.Now().UTC()
	}
	m.todos[todo.ID] = todo
	return todo, nil
}

func (m *MemoryTodoRepository) ListByOwner(_ context.Context, ownerID string) ([]domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	todos := []domain.Todo{}
	for _, todo := range m.todos {
		if todo.OwnerID == ownerID {
			todos = append(todos, todo)
		}
	}
	sort.Slice(todos, func(i, j int) bool {
		return todos[i].CreatedAt.Before(todos[j].CreatedAt)
	})
	return todos, nil
}

func (m *MemoryTodoRepository) GetByID(_ context.Context, ownerID, id string) (domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	todo, ok := m.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return domain.Todo{}, ErrNotFound
	}
	return todo, nil
}

func (m *MemoryTodoRepository) Update(_ context.Context, ownerID, id string, patch domain.TodoPatch) (domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	todo, ok := m.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return domain.Todo{}, ErrNotFound
	}
	if patch.Text != nil {
		todo.Text = *patch.Text
	}
	if patch.Completed != nil {
		todo.Completed = *patch.Completed
		todo.CompletedAt = patch.CompletedAt
	}
	m.todos[id] = todo
	return todo, nil
}

func (m *MemoryTodoRepository) Delete(_ context.Context, ownerID, id string) (domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	todo, ok := m.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return domain.Todo{}, ErrNotFound
	}
	delete(m.todos, id)
	return todo, nil
}

func cloneUser(u domain.User) domain.User {
	u.Tokens = cloneTokens(u.Tokens)
	return u
}

func cloneTokens(tokens []domain.AuthToken) []domain.AuthToken {
	if tokens == nil {
		return nil
	}
	out := make([]domain.AuthToken, len(tokens))
	copy(out, tokens)
	return out
}
