package service

import (
	"errors"
	"fmt"
)

// Raices de la taxonomia; los handlers clasifican con errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrAuth       = errors.New("authentication failed")
)

var (
	ErrInvalidEmail     = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrPasswordTooShort = fmt.Errorf("%w: password too short", ErrValidation)
	ErrEmailInUse       = fmt.Errorf("%w: email already in use", ErrValidation)
	ErrInvalidTodo      = fmt.Errorf("%w: invalid todo", ErrValidation)

	ErrNoSuchUser    = fmt.Errorf("%w: No Such User", ErrAuth)
	ErrWrongPassword = fmt.Errorf("%w: Wrong Password", ErrAuth)
	ErrUserNotFound  = fmt.Errorf("%w: user not found", ErrAuth)

	ErrTokenInvalid   = fmt.Errorf("%w: token invalid", ErrAuth)
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	ErrTokenSignature = fmt.Errorf("%w: invalid signature", ErrTokenInvalid)
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrTokenInvalid)

	ErrTodoNotFound       = errors.New("todo not found")
	ErrTokenRemovalFailed = errors.New("token removal failed")
	ErrRateLimited        = errors.New("rate limited")
	ErrSecretMissing      = errors.New("jwt secret not configured")
)
