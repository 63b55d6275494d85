package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"todo-api/internal/domain"
	"todo-api/internal/repository"
)

// TodoInput son los campos que un cliente puede fijar al crear o editar una tarea.
type TodoInput struct {
	Text      *string
	Completed *bool
}

// TodoService aplica las reglas de tareas siempre acotadas al dueño.
type TodoService struct {
	logger *zap.Logger
	todos  repository.TodoRepository
	now    func() time.Time
}

func NewTodoService(logger *zap.Logger, todos repository.TodoRepository) *TodoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TodoService{
		logger: logger,
		todos:  todos,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *TodoService) Create(ctx context.Context, ownerID string, input TodoInput) (domain.Todo, error) {
	if s.todos == nil {
		return domain.Todo{}, errors.New("todo service not configured")
	}
	if input.Text == nil {
		return domain.Todo{}, fmt.Errorf("%w: text is required", ErrInvalidTodo)
	}
	text, err := cleanText(*input.Text)
	if err != nil {
		return domain.Todo{}, err
	}
	todo := domain.Todo{Text: text, OwnerID: ownerID}
	if input.Completed != nil && *input.Completed {
		todo.Completed = true
		todo.CompletedAt = s.nowMillis()
	}
	return s.todos.Create(ctx, todo)
}

func (s *TodoService) List(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	if s.todos == nil {
		return nil, errors.New("todo service not configured")
	}
	return s.todos.ListByOwner(ctx, ownerID)
}

func (s *TodoService) Get(ctx context.Context, ownerID, id string) (domain.Todo, error) {
	if s.todos == nil {
		return domain.Todo{}, errors.New("todo service not configured")
	}
	todo, err := s.todos.GetByID(ctx, ownerID, id)
	return todo, mapTodoErr(err)
}

// Update fija completedAt solo cuando el cambio trae completed: ahora si es
// true, null si es false.
func (s *TodoService) Update(ctx context.Context, ownerID, id string, input TodoInput) (domain.Todo, error) {
	if s.todos == nil {
		return domain.Todo{}, errors.New("todo service not configured")
	}
	var patch domain.TodoPatch
	if input.Text != nil {
		text, err := cleanText(*input.Text)
		if err != nil {
			return domain.Todo{}, err
		}
		patch.Text = &text
	}
	if input.Completed != nil {
		completed := *input.Completed
		patch.Completed = &completed
		if completed {
			patch.CompletedAt = s.nowMillis()
		}
	}
	todo, err := s.todos.Update(ctx, ownerID, id, patch)
	return todo, mapTodoErr(err)
}

func (s *TodoService) Delete(ctx context.Context, ownerID, id string) (domain.Todo, error) {
	if s.todos == nil {
		return domain.Todo{}, errors.New("todo service not configured")
	}
	todo, err := s.todos.Delete(ctx, ownerID, id)
	return todo, mapTodoErr(err)
}

func (s *TodoService) nowMillis() *int64 {
	ms := s.now().UnixMilli()
	return &ms
}

func cleanText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("%w: text must not be empty", ErrInvalidTodo)
	}
	return text, nil
}

func mapTodoErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTodoNotFound
	}
	return err
}
