package validator

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors_ []*ErrorResponse
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []*ErrorResponse{{FailedField: "", Tag: err.Error()}}
	}
	for _, err := range validationErrs {
		var element ErrorResponse
		element.FailedField = err.StructNamespace()
		element.Tag = err.Tag()
		element.Value = err.Param()
		errors_ = append(errors_, &element)
	}
	return errors_
}
