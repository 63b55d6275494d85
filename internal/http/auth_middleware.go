package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todo-api/internal/domain"
	"todo-api/internal/service"
)

const authOutcomeKey = "auth_outcome"

var bearerPattern = regexp.MustCompile(`^Bearer ([\w_-]+\.[\w_-]+\.[\w_-]+)$`)

var (
	ErrMissingHeader   = fmt.Errorf("%w: missing authorization header", service.ErrAuth)
	ErrMalformedHeader = fmt.Errorf("%w: malformed authorization header", service.ErrAuth)
)

// AuthOutcome es el resultado de autenticar un request: usuario y token, o el
// motivo del fallo en Err.
type AuthOutcome struct {
	User  domain.User
	Token string
	Err   error
}

func (o AuthOutcome) OK() bool {
	return o.Err == nil
}

// TokenResolver resuelve un token al usuario que todavia lo tiene vigente.
type TokenResolver interface {
	FindByToken(ctx context.Context, token string) (domain.User, error)
}

// ExtractBearerToken devuelve el token de un header "Bearer a.b.c".
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingHeader
	}
	match := bearerPattern.FindStringSubmatch(header)
	if match == nil {
		return "", ErrMalformedHeader
	}
	return match[1], nil
}

// AuthMiddleware nunca corta la cadena: deja un AuthOutcome en el contexto y
// cada handler decide el status.
func AuthMiddleware(logger *zap.Logger, users TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(authOutcomeKey, authenticate(c, logger, users))
		c.Next()
	}
}

func authenticate(c *gin.Context, logger *zap.Logger, users TokenResolver) AuthOutcome {
	token, err := ExtractBearerToken(c.GetHeader("Authorization"))
	if err != nil {
		logger.Debug("auth header rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
		return AuthOutcome{Err: err}
	}

	user, err := users.FindByToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logger.Debug("auth user not found", zap.String("path", c.Request.URL.Path))
		} else {
			logger.Debug("auth token rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
		}
		return AuthOutcome{Err: err}
	}
	return AuthOutcome{User: user, Token: token}
}

// GetAuthOutcome obtiene el resultado de autenticacion desde el contexto.
func GetAuthOutcome(c *gin.Context) AuthOutcome {
	val, ok := c.Get(authOutcomeKey)
	if !ok {
		return AuthOutcome{Err: ErrMissingHeader}
	}
	outcome, ok := val.(AuthOutcome)
	if !ok {
		return AuthOutcome{Err: ErrMissingHeader}
	}
	return outcome
}

// requireAuth responde 400 si el request no quedo autenticado y, si lo esta,
// devuelve el token en el header Authorization.
func requireAuth(c *gin.Context) (AuthOutcome, bool) {
	outcome := GetAuthOutcome(c)
	if !outcome.OK() {
		c.JSON(http.StatusBadRequest, gin.H{"error": outcome.Err.Error()})
		return outcome, false
	}
	c.Header("Authorization", "Bearer "+outcome.Token)
	return outcome, true
}
