package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation   = fmt.Errorf("validation failed")
	ErrNotFound     = fmt.Errorf("not found")
	ErrPersistence  = fmt.Errorf("persistence failure")
	ErrStaleSession = fmt.Errorf("stale session")

	ErrInvalidPayload     = fmt.Errorf("invalid payload")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("invalid password")
	ErrUserAlreadyExists  = fmt.Errorf("username already taken")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUnauthenticated    = fmt.Errorf("unauthenticated")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// HTTPStatus maps a domain error onto the status code returned by the REST API.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrValidation),
		stderrors.Is(err, ErrInvalidPayload),
		stderrors.Is(err, ErrInvalidPassword),
		stderrors.Is(err, ErrInvalidCredentials):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
