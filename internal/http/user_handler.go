package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todo-api/internal/domain"
	"todo-api/internal/validation"
)

// UserDirectory es lo que los handlers de usuario necesitan del servicio.
type UserDirectory interface {
	Register(ctx context.Context, email, password string) (domain.User, string, error)
	Login(ctx context.Context, email, password string) (domain.User, string, error)
	RemoveToken(ctx context.Context, user domain.User, token string) error
}

// UserHandler mantiene dependencias para endpoints de usuarios.
type UserHandler struct {
	logger *zap.Logger
	users  UserDirectory
}

func NewUserHandler(logger *zap.Logger, users UserDirectory) *UserHandler {
	return &UserHandler{
		logger: logger,
		users:  users,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register maneja POST /users.
func (h *UserHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if !bindValidated(c, validation.UserSchema, validation.CredentialFields, &req) {
		h.logger.Warn("invalid register request")
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return
	}

	user, token, err := h.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, "register", err)
		return
	}

	c.Header("Authorization", "Bearer "+token)
	c.JSON(http.StatusOK, user)
}

// Login maneja POST /users/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if !bindValidated(c, validation.UserSchema, validation.CredentialFields, &req) {
		h.logger.Warn("invalid login request")
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return
	}

	user, token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, "login", err)
		return
	}

	c.Header("Authorization", "Bearer "+token)
	c.JSON(http.StatusOK, user)
}

// Me maneja GET /users/me.
func (h *UserHandler) Me(c *gin.Context) {
	outcome, ok := requireAuth(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, outcome.User)
}

// Logout maneja DELETE /users/me/token.
func (h *UserHandler) Logout(c *gin.Context) {
	outcome, ok := requireAuth(c)
	if !ok {
		return
	}
	if err := h.users.RemoveToken(c.Request.Context(), outcome.User, outcome.Token); err != nil {
		c.Writer.Header().Del("Authorization")
		respondError(c, h.logger, "logout", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}
