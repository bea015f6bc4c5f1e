package services

import (
	"errors"
	"fmt"

	"todo-tracker/internal/repositories"
)

// ErrTodoNotFound は対象のTodoが存在しないことを表します。
var ErrTodoNotFound = repositories.ErrTodoNotFound

// ValidationError は入力値の検証エラーです。Fieldが空の場合はフォーム全体のエラーです。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError は存在しないIDへの更新で返されます。errors.Is(err, ErrTodoNotFound) が成り立ちます。
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("todo with id %d not found", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrTodoNotFound
}

// IsValidation はerrがValidationErrorであればそれを返します。
func IsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
