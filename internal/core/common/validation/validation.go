package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	errors "github.com/frahmantamala/agency-dashboard/internal"
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]FieldValidator, 0),
	}
}

// Field registers a value for validation. The returned pointer is only
// valid until the next call to Field.
func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return &v.fields[len(v.fields)-1]
}

func (fv *FieldValidator) fail(message string) *errors.AppError {
	return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeValidationFailed)
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return fv.fail(fmt.Sprintf("%s is required", fv.FieldName))
			}
		case int64:
			if v == 0 {
				return fv.fail(fmt.Sprintf("%s is required", fv.FieldName))
			}
		case *string:
			if v == nil || *v == "" {
				return fv.fail(fmt.Sprintf("%s is required", fv.FieldName))
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinInt(min int64) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(int64); ok && v < min {
			return fv.fail(fmt.Sprintf("%s must be at least %d", fv.FieldName, min))
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && len(v) > max {
			return fv.fail(fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max))
		}
		return nil
	})
	return fv
}

// Email accepts a bare address only; display names are rejected.
func (fv *FieldValidator) Email() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		v, ok := value.(string)
		if !ok || v == "" {
			return nil
		}
		addr, err := mail.ParseAddress(v)
		if err != nil || addr.Address != v {
			return fv.fail(fmt.Sprintf("%s must be a valid email address", fv.FieldName))
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Matches(pattern *regexp.Regexp, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && v != "" && !pattern.MatchString(v) {
			return fv.fail(message)
		}
		return nil
	})
	return fv
}

// Validate runs every validator and aggregates the failures into a single
// VALIDATION_FAILED error.
func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			appErr := validator(field.Value)
			if appErr == nil {
				continue
			}
			if details, ok := appErr.Details.(errors.ValidationErrors); ok {
				validationErrors = append(validationErrors, details.Errors...)
				continue
			}
			validationErrors = append(validationErrors, errors.ValidationError{
				Field:   field.FieldName,
				Message: appErr.Message,
				Code:    string(appErr.Code),
			})
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}
