package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps json field names to Czech labels (accusative, as used in "Vyplňte prosím ...")
var FieldLabels = map[string]string{
	"firstName": "jméno",
	"lastName":  "příjmení",
	"email":     "e-mail",
	"company":   "firmu",
	"position":  "pozici",
	"source":    "zdroj",
	"message":   "zprávu",
}

const (
	InvalidEmailMessage   = "Zadejte prosím platnou e-mailovou adresu."
	InvalidPayloadMessage = "Neplatný formát požadavku."
)

// RequiredMessage is shown when a mandatory field is empty
func RequiredMessage(field string) string {
	return fmt.Sprintf("Vyplňte prosím %s.", getFieldLabel(field))
}

// FormatValidationErrors converts validator.ValidationErrors to user-friendly messages
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// Not a validation error, return generic message
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, FormatFieldError(e))
	}
	return messages
}

// FormatFieldError formats a single validation error to a user-friendly message
func FormatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return RequiredMessage(e.Field())
	case "contact_email", "email":
		return InvalidEmailMessage
	default:
		return fmt.Sprintf("Pole %s není vyplněno správně.", getFieldLabel(e.Field()))
	}
}

// FirstRequired returns the first missing-field error, falling back to the first error.
// Missing fields are reported before format problems regardless of field order.
func FirstRequired(errs validator.ValidationErrors) validator.FieldError {
	if len(errs) == 0 {
		return nil
	}
	for _, e := range errs {
		if e.Tag() == "required" {
			return e
		}
	}
	return errs[0]
}

func getFieldLabel(field string) string {
	if label, ok := FieldLabels[field]; ok {
		return label
	}
	return field
}
