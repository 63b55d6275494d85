package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTService firma y verifica los tokens de autorizacion.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Claims es el payload firmado: sujeto, proposito, iat y un jti para que
// dos firmas del mismo sujeto nunca coincidan.
type Claims struct {
	UserID  string `json:"_id"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// IssuedAtTime devuelve el iat embebido o el tiempo cero.
func (c Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// NewJWTService recibe el secreto y la expiracion; ttl <= 0 significa sin expiracion.
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl < 0 {
		ttl = 0
	}
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Ready informa si el servicio puede firmar.
func (s *JWTService) Ready() error {
	if len(s.secret) == 0 {
		return ErrSecretMissing
	}
	return nil
}

func (s *JWTService) Sign(subjectID, purpose string) (string, error) {
	if err := s.Ready(); err != nil {
		return "", err
	}
	now := s.now()
	claims := Claims{
		UserID:  subjectID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Subject:  subjectID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify valida firma y expiracion antes de mirar cualquier claim. El error
// devuelto envuelve ErrTokenMalformed, ErrTokenSignature o ErrTokenExpired junto
// con el motivo de la libreria.
func (s *JWTService) Verify(tokenString string) (Claims, error) {
	if len(s.secret) == 0 {
		return Claims{}, ErrSecretMissing
	}
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, fmt.Errorf("%w: empty token", ErrTokenMalformed)
	}
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, fmt.Errorf("%w: %v", ErrTokenSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		default:
			return Claims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}
	if !validClaims(claims) {
		return Claims{}, fmt.Errorf("%w: missing subject or purpose", ErrTokenMalformed)
	}
	return claims, nil
}

func validClaims(claims Claims) bool {
	if strings.TrimSpace(claims.UserID) == "" || strings.TrimSpace(claims.Purpose) == "" {
		return false
	}
	return claims.Subject == claims.UserID
}
