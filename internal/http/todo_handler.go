package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todo-api/internal/domain"
	"todo-api/internal/service"
	"todo-api/internal/validation"
)

// TodoStore es lo que los handlers de tareas necesitan del servicio.
type TodoStore interface {
	Create(ctx context.Context, ownerID string, input service.TodoInput) (domain.Todo, error)
	List(ctx context.Context, ownerID string) ([]domain.Todo, error)
	Get(ctx context.Context, ownerID, id string) (domain.Todo, error)
	Update(ctx context.Context, ownerID, id string, input service.TodoInput) (domain.Todo, error)
	Delete(ctx context.Context, ownerID, id string) (domain.Todo, error)
}

// TodoHandler expone el CRUD de tareas del usuario autenticado.
type TodoHandler struct {
	logger *zap.Logger
	todos  TodoStore
}

func NewTodoHandler(logger *zap.Logger, todos TodoStore) *TodoHandler {
	return &TodoHandler{logger: logger, todos: todos}
}

type todoRequest struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

func (r todoRequest) input() service.TodoInput {
	return service.TodoInput{Text: r.Text, Completed: r.Completed}
}

// Create maneja POST /todos.
func (h *TodoHandler) Create(c *gin.Context) {
	outcome, ok := requireAuth(c)
	if !ok {
		return
	}
	var req todoRequest
	if !bindValidated(c, validation.TodoSchema, validation.TodoFields, &req) {
		h.logger.Warn("invalid create todo request", zap.String("user_id", outcome.User.ID))
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return
	}

	todo, err := h.todos.Create(c.Request.Context(), outcome.User.ID, req.input())
	if err != nil {
		respondError(c, h.logger, "create todo", err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// List maneja GET /todos.
func (h *TodoHandler) List(c *gin.Context) {
	outcome, ok := requireAuth(c)
	if !ok {
		return
	}
	todos, err := h.todos.List(c.Request.Context(), outcome.User.ID)
	if err != nil {
		respondError(c, h.logger, "list todos", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todos": todos})
}

// Get maneja GET /todos/:id.
func (h *TodoHandler) Get(c *gin.Context) {
	outcome, ok := requireAuth(c)
	if !ok {
		return
	}
	todo, err := h.todos.Get(c.Request.Context(), outcome.User.ID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get todo", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todo})
}

// Update maneja PATCH /todos/:id.
func (h *TodoHandler) Update(c *gin.Context) {
	outcome, ok := requireAuth(c)
	if !ok {
		return
	}
	var req todoRequest
	if !bindValidated(c, validation.TodoSchema, validation.TodoFields, &req) {
		h.logger.Warn("invalid update todo request", zap.String("user_id", outcome.User.ID))
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return
	}

	todo, err := h.todos.Update(c.Request.Context(), outcome.User.ID, c.Param("id"), req.input())
	if err != nil {
		respondError(c, h.logger, "update todo", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todo})
}

// Delete maneja DELETE /todos/:id.
func (h *TodoHandler) Delete(c *gin.Context) {
	outcome, ok := requireAuth(c)
	if !ok {
		return
	}
	todo, err := h.todos.Delete(c.Request.Context(), outcome.User.ID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "delete todo", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todo})
}
