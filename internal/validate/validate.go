// Package validate runs client-side form validation.
//
// Forms are plain structs tagged for go-playground/validator. Failures are
// reported as FieldErrors keyed by the field's json name, so callers can show
// each message next to its field.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/and161185/appealkit/internal/errs"
	"github.com/go-playground/validator/v10"
)

// Field keys and messages that are not tied to one struct field.
const (
	FieldGeneral = "general"
)

var (
	emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	otpRx   = regexp.MustCompile(`^\d{6}$`)
)

// FieldErrors maps a field name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Unwrap makes errors.Is(err, errs.ErrValidation) hold.
func (fe FieldErrors) Unwrap() error { return errs.ErrValidation }

// Add records msg for field unless one is already set.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// Err returns fe as an error, or nil when empty.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// Email reports whether s has the basic text@text.text shape.
func Email(s string) bool { return emailRx.MatchString(s) }

// OTP reports whether s is exactly six digits.
func OTP(s string) bool { return otpRx.MatchString(s) }

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
			return Email(fl.Field().String())
		})
		_ = v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
			return OTP(fl.Field().String())
		})
	})
	return v
}

// Struct validates s and returns FieldErrors, or nil.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("validate: %w", err)
	}
	fe := FieldErrors{}
	for _, e := range ves {
		fe.Add(e.Field(), message(s, e))
	}
	return fe
}

// message renders one validator failure as user-facing text.
func message(s any, e validator.FieldError) string {
	label := labelOf(s, e.StructField())
	switch e.Tag() {
	case "required":
		if e.Kind() == reflect.Bool {
			return "You must accept the " + strings.ToLower(label)
		}
		return label + " is required"
	case "min":
		switch e.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be at least %s characters", label, e.Param())
		case reflect.Slice, reflect.Map:
			return fmt.Sprintf("%s needs at least %s entries", label, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", label, e.Param())
	case "emailshape":
		return "Please enter a valid email address"
	case "otp":
		return "Please enter the complete 6-digit code"
	case "eqfield":
		return "Passwords do not match"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, e.Param())
	default:
		return label + " is invalid"
	}
}

// labelOf reads the `label` tag of the named field, falling back to the Go name.
func labelOf(s any, field string) string {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		if f, ok := t.FieldByName(field); ok {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
		}
	}
	return field
}
