package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"todo-api/internal/service"
	"todo-api/internal/validation"
)

const msgInvalidRequest = "invalid request"

// respondError traduce la taxonomia de errores del servicio a status HTTP.
// Los errores del store se devuelven como 400 con su mensaje.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
	case errors.Is(err, service.ErrTodoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrNoSuchUser), errors.Is(err, service.ErrWrongPassword):
		logger.Warn(op+" rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrAuth),
		errors.Is(err, service.ErrTokenRemovalFailed):
		logger.Warn(op+" rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// bindValidated comprueba el body contra el esquema y la lista de campos
// permitidos y luego lo decodifica en dst.
func bindValidated(c *gin.Context, schema validation.Schema, allowed []string, dst any) bool {
	var payload map[string]any
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		return false
	}
	if !validation.Validate(payload, schema, allowed) {
		return false
	}
	return c.ShouldBindBodyWith(dst, binding.JSON) == nil
}
