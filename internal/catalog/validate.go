package catalog

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// recordValidate checks catalog records. Initialized in init() with custom validators.
var recordValidate *validator.Validate

func init() {
	recordValidate = validator.New()

	_ = recordValidate.RegisterValidation("classname", validateClassName)
}

// validateClassName accepts capitalized identifiers such as Num or Maybe.
func validateClassName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return false
	}
	for i, r := range name {
		if i == 0 && !unicode.IsUpper(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

func validateRecords(classes []ClassDef, entries []Entry) error {
	for i := range classes {
		if err := recordValidate.Struct(&classes[i]); err != nil {
			return fmt.Errorf("classes[%d]: %w", i, describe(err))
		}
	}
	for i := range entries {
		if err := recordValidate.Struct(&entries[i]); err != nil {
			return fmt.Errorf("functions[%d] (%s): %w", i, entries[i].Name, describe(err))
		}
	}
	return nil
}

// describe flattens validator field errors into one readable error.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, field+" must not be empty")
		case "classname":
			msgs = append(msgs, fmt.Sprintf("%s %q is not a capitalized name", field, fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
