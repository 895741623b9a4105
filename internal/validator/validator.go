package validator

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// ValidationError maps a json field name to a human readable message.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	fields := lo.Keys(e.Errors)
	slices.Sort(fields)
	parts := lo.Map(fields, func(f string, _ int) string {
		return fmt.Sprintf("%s: %s", f, e.Errors[f])
	})
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator checks request structs against their validate tags and the
// payment rules.
type Validator struct {
	validate *validator.Validate
	messages map[string]string
}

var presenceTags = []string{"required", "required_unless", "required_without"}

func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)

	if err := registerRules(v, paymentRules); err != nil {
		panic(err)
	}

	messages := map[string]string{"email": "Must be a valid email address"}
	for _, tag := range presenceTags {
		messages[tag] = "This field is required"
	}
	for _, r := range paymentRules {
		messages[r.tag] = r.message
	}
	return &Validator{validate: v, messages: messages}
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// Validate returns *ValidationError when obj fails any rule.
func (v *Validator) Validate(obj interface{}) error {
	err := v.validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	return &ValidationError{
		Errors: lo.SliceToMap(fieldErrs, func(fe validator.FieldError) (string, string) {
			return fe.Field(), v.message(fe)
		}),
	}
}

func (v *Validator) message(fe validator.FieldError) string {
	if msg, ok := v.messages[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "min", "max":
		bound := "least"
		if fe.Tag() == "max" {
			bound = "most"
		}
		if k := fe.Kind(); k == reflect.String || k == reflect.Slice || k == reflect.Map {
			return fmt.Sprintf("Must have at %s %s characters or items", bound, fe.Param())
		}
		return fmt.Sprintf("Must be at %s %s", bound, fe.Param())
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return fmt.Sprintf("Invalid value (%s)", fe.Tag())
}
