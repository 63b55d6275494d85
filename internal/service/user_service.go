package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"todo-api/internal/domain"
	"todo-api/internal/repository"
)

const maxPasswordBytes = 72

// UserService coordina registro, login y el ciclo de vida de los tokens.
type UserService struct {
	logger         *zap.Logger
	users          repository.UserRepository
	tokens         *JWTService
	hasher         *PasswordHasher
	limiter        LoginLimiter
	validate       *validator.Validate
	minPasswordLen int
}

func NewUserService(
	logger *zap.Logger,
	users repository.UserRepository,
	tokens *JWTService,
	hasher *PasswordHasher,
	limiter LoginLimiter,
	minPasswordLen int,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = NewPasswordHasher(0)
	}
	if limiter == nil {
		limiter = NewMemoryLoginLimiter(10*time.Minute, 10)
	}
	if minPasswordLen <= 0 {
		minPasswordLen = 6
	}
	return &UserService{
		logger:         logger,
		users:          users,
		tokens:         tokens,
		hasher:         hasher,
		limiter:        limiter,
		validate:       validator.New(),
		minPasswordLen: minPasswordLen,
	}
}

// Register crea el usuario con lista de tokens vacia y le emite un token de auth.
func (s *UserService) Register(ctx context.Context, email, password string) (domain.User, string, error) {
	if err := s.ready(); err != nil {
		return domain.User{}, "", err
	}
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email,max=254"); err != nil {
		return domain.User{}, "", ErrInvalidEmail
	}
	if len(password) < s.minPasswordLen {
		return domain.User{}, "", ErrPasswordTooShort
	}
	if len(password) > maxPasswordBytes {
		return domain.User{}, "", fmt.Errorf("%w: password too long", ErrValidation)
	}

	// sin secreto no se puede emitir el token; se corta antes de persistir
	if err := s.tokens.Ready(); err != nil {
		return domain.User{}, "", err
	}

	user, err := s.Save(ctx, domain.User{Email: email, Password: password})
	if err != nil {
		return domain.User{}, "", err
	}
	issued, token, err := s.issueToken(ctx, user)
	if err != nil {
		// el usuario ya quedo guardado; puede recuperar la sesion con login
		s.logger.Error("register left user without token", zap.Error(err), zap.String("user_id", user.ID))
		return domain.User{}, "", err
	}
	return issued, token, nil
}

// Login no distingue hacia afuera entre email inexistente y password incorrecto;
// los errores internos si lo hacen. Solo los fallos de credenciales cuentan para
// el limitador y un login correcto los borra.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	if err := s.ready(); err != nil {
		return domain.User{}, "", err
	}
	email = normalizeEmail(email)
	if s.limiter.Blocked(ctx, email) {
		return domain.User{}, "", ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.limiter.RecordFailure(ctx, email)
			return domain.User{}, "", ErrNoSuchUser
		}
		return domain.User{}, "", err
	}
	if user.PasswordHash == "" || !s.hasher.Verify(password, user.PasswordHash) {
		s.limiter.RecordFailure(ctx, email)
		return domain.User{}, "", ErrWrongPassword
	}
	s.limiter.Reset(ctx, email)
	return s.issueToken(ctx, user)
}

// Save persiste el usuario. Solo hashea cuando Password trae texto plano, asi
// que guardar dos veces el mismo usuario deja el hash intacto.
func (s *UserService) Save(ctx context.Context, user domain.User) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}
	if user.Password != "" {
		hash, err := s.hasher.Hash(user.Password)
		if err != nil {
			return domain.User{}, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
		user.Password = ""
	}

	if user.ID == "" {
		if user.Tokens == nil {
			user.Tokens = []domain.AuthToken{}
		}
		created, err := s.users.Create(ctx, user)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domain.User{}, ErrEmailInUse
			}
			return domain.User{}, err
		}
		return created, nil
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.User{}, ErrEmailInUse
		}
		return domain.User{}, err
	}
	return user, nil
}

// FindByToken propaga los errores del codec tal cual; un token valido que ya no
// esta en la lista del usuario devuelve ErrUserNotFound.
func (s *UserService) FindByToken(ctx context.Context, token string) (domain.User, error) {
	if err := s.ready(); err != nil {
		return domain.User{}, err
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.users.GetByToken(ctx, claims.UserID, domain.AuthToken{Purpose: claims.Purpose, Token: token})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// RemoveToken quita una sola entrada; si no quedaba ninguna devuelve ErrTokenRemovalFailed.
func (s *UserService) RemoveToken(ctx context.Context, user domain.User, token string) error {
	if s.users == nil {
		return errors.New("user service not configured")
	}
	if err := s.users.RemoveToken(ctx, user.ID, token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTokenRemovalFailed
		}
		return err
	}
	return nil
}

func (s *UserService) issueToken(ctx context.Context, user domain.User) (domain.User, string, error) {
	token, err := s.tokens.Sign(user.ID, domain.PurposeAuth)
	if err != nil {
		return domain.User{}, "", err
	}
	entry := domain.AuthToken{Purpose: domain.PurposeAuth, Token: token}
	if err := s.users.AddToken(ctx, user.ID, entry); err != nil {
		s.logger.Error("append auth token failed", zap.Error(err), zap.String("user_id", user.ID))
		return domain.User{}, "", err
	}
	user.Tokens = append(user.Tokens, entry)
	return user, token, nil
}

func (s *UserService) ready() error {
	if s.users == nil || s.tokens == nil {
		return errors.New("user service not configured")
	}
	return nil
}
