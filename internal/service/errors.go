package service

import (
	"errors"
	"fmt"

	"go-pos-inventory/internal/repository"
	"go-pos-inventory/pkg/validator"

	"github.com/google/uuid"
)

// Error definitions. Callers branch with errors.Is; anything that matches none
// of them is an unexpected failure.
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrSaleNotFound      = errors.New("sale not found")
	ErrRequestNotFound   = errors.New("request not found")
	ErrInsufficientStock = errors.New("insufficient stock or invalid quantity")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid request status transition")
	ErrProductInUse      = errors.New("product is referenced by recorded sales")
	ErrTransientStore    = errors.New("transient store failure")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

// InsufficientStockError is the business outcome of a sale that cannot be
// served from current stock, or asks for a non-positive quantity.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	if e.Requested <= 0 {
		return fmt.Sprintf("invalid quantity %d for %q: quantity must be greater than zero", e.Requested, e.ProductName)
	}
	return fmt.Sprintf("insufficient stock for %q: requested %d, only %d available", e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// ValidationError reports the first field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// validate runs struct tag validation and reports the first failure.
func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return &ValidationError{Field: first.FailedField, Message: fmt.Sprintf("failed on tag '%s'", first.Tag)}
	}
	return nil
}

var domainErrors = []error{
	ErrProductNotFound,
	ErrSaleNotFound,
	ErrRequestNotFound,
	ErrInsufficientStock,
	ErrInvalidInput,
	ErrInvalidTransition,
	ErrProductInUse,
	ErrTransientStore,
}

// classify maps a failure leaving a transaction onto the taxonomy: domain
// errors pass through, retryable store errors become ErrTransientStore, and
// everything else is wrapped as unexpected.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	if repository.IsTransient(err) {
		return fmt.Errorf("%w: %v", ErrTransientStore, err)
	}
	return fmt.Errorf("unexpected store failure: %w", err)
}
