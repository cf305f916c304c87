package utils

import (
	"errors"
	"fmt"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrorRecordNotFound = errors.New("record not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict, please retry")
)

// ValidationError is a field-level rejection raised before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// RequiredField is the common "missing required field" rejection.
func RequiredField(field string) error {
	return &ValidationError{Field: field, Message: field + " is required"}
}

// ReferenceNotFound reports a related id that does not resolve inside the caller's tenant.
// Rows owned by other tenants get the same message as rows that do not exist.
func ReferenceNotFound(field, entity string) error {
	return &ValidationError{Field: field, Message: entity + " not found"}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDuplicateKeyErr recognises unique-constraint violations from either driver.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
