package serverutils

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// AppError carries an HTTP status through the service layer.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func BadRequest(message string) *AppError {
	return NewAppError(fiber.StatusBadRequest, message, nil)
}

func Forbidden(message string) *AppError {
	return NewAppError(fiber.StatusForbidden, message, nil)
}

func NotFound(message string) *AppError {
	return NewAppError(fiber.StatusNotFound, message, nil)
}

func Internal(message string, err error) *AppError {
	return NewAppError(fiber.StatusInternalServerError, message, err)
}
