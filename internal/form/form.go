// Package form validates user-entered structs with go-playground/validator
// and turns the result into messages a person can read.
//
// Rules live on the struct as `validate:"..."` tags; an optional
// `label:"..."` tag gives the field's display name (default: the Go field name).
//
//	type ContactForm struct {
//	    Email string `json:"email" validate:"required,email" label:"Email"`
//	}
//
// Besides the built-in tags, one custom rule is registered:
//   - httpurl: empty, or starts with http:// or https://
package form

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/portfolio/internal/apperror"
)

var httpURLPattern = regexp.MustCompile(`^https?://`)

var (
	once     sync.Once
	instance *validator.Validate
)

// validate returns the shared validator. validator.Validate caches struct
// metadata and is safe for concurrent use, so one instance serves everyone.
func validate() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their JSON name so Errors keys match the wire format.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})

		v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || httpURLPattern.MatchString(s)
		})

		instance = v
	})
	return instance
}

// Errors maps a field's JSON name to its first failure message.
type Errors map[string]string

// Check validates v and returns nil when every rule passes.
func Check(v any) Errors {
	err := validate().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: v was not a struct. A programming error,
		// surfaced as a form-level failure rather than a panic.
		return Errors{"": err.Error()}
	}

	out := make(Errors, len(verrs))
	labels := labelsOf(v)
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		label := labels[fe.StructField()]
		if label == "" {
			label = fe.StructField()
		}
		out[fe.Field()] = message(label, fe)
	}
	return out
}

// Validate is Check as an error: the first failing field (in struct order)
// becomes an apperror.ValidationFailed.
func Validate(v any) error {
	errs := Check(v)
	if errs == nil {
		return nil
	}
	for _, field := range fieldOrder(v) {
		if msg, ok := errs[field]; ok {
			return apperror.ValidationFailed(field, msg)
		}
	}
	for field, msg := range errs {
		return apperror.ValidationFailed(field, msg)
	}
	return nil
}

// First returns the message of the first failing field in struct order, or "".
func (e Errors) First(v any) string {
	for _, field := range fieldOrder(v) {
		if msg, ok := e[field]; ok {
			return msg
		}
	}
	return ""
}

func message(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "email":
		return "Please enter a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			if fe.Param() == "1" {
				return fmt.Sprintf("At least one %s is required", singular(strings.ToLower(label)))
			}
			return fmt.Sprintf("%s needs at least %s entries", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "httpurl":
		return fmt.Sprintf("%s must start with http:// or https://", label)
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// singular handles the plurals labels actually use: "technologies", "tags".
func singular(s string) string {
	if strings.HasSuffix(s, "ies") {
		return strings.TrimSuffix(s, "ies") + "y"
	}
	return strings.TrimSuffix(s, "s")
}

func structType(v any) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

// labelsOf maps Go field name → label tag.
func labelsOf(v any) map[string]string {
	t := structType(v)
	if t == nil {
		return nil
	}
	out := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		out[f.Name] = f.Tag.Get("label")
	}
	return out
}

// fieldOrder lists JSON field names in declaration order.
func fieldOrder(v any) []string {
	t := structType(v)
	if t == nil {
		return nil
	}
	out := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			name = f.Name
		}
		out = append(out, name)
	}
	return out
}
