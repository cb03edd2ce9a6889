package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// UserError carries a message that is safe to show to the caller.
type UserError struct {
	Message string
}

func (e UserError) Error() string {
	return e.Message
}

// ValidationError maps request field names to human-readable problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, e.Fields[key]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// validationError returns nil when fields is empty.
func validationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderForbidden      = errors.New("order belongs to another user")
	ErrDuplicateOrder      = errors.New("an earlier attempt with this idempotency key failed")
	ErrOrderStatusConflict = errors.New("order status conflict")
	ErrSignatureMismatch   = errors.New("payment signature mismatch")
	ErrPaymentVerification = errors.New("payment verification failed")
	ErrPaymentGateway      = errors.New("payment gateway error")
	ErrProductNotFound     = errors.New("product not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategoryExists      = errors.New("category already exists")
	ErrServiceUnavailable  = errors.New("service unavailable")
)
