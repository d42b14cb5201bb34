package controller

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/ashureev/nia-console/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateChild checks the create-child form.
func validateChild(in domain.ChildInput) *ValidationError {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Tag() == "oneof" && fe.Field() == "PreferredLanguage" {
				return &ValidationError{Form: FormChild, Message: "Preferred language must be English (en) or Spanish (es)"}
			}
		}
	}
	return &ValidationError{Form: FormChild, Message: RequiredFieldsText}
}
