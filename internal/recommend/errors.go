package recommend

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/uosnotice/programrank/internal/program"
)

// ErrInvalidInput is wrapped by every error that rejects a request before scoring
var ErrInvalidInput = errors.New("invalid input")

// InputError describes one rejected request field
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Message)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateUser rejects a malformed profile. Values are never clamped.
func ValidateUser(user program.UserProfile) error {
	var errs []error

	if err := getValidator().Struct(user); err != nil {
		errs = append(errs, translate(err)...)
	}
	if user.Department != "" && strings.TrimSpace(user.Department) == "" {
		errs = append(errs, &InputError{Field: "department", Message: "department is required"})
	}

	return errors.Join(errs...)
}

// ValidateOptions rejects malformed ranking options against the configured limits
func ValidateOptions(opts RankOptions, cfg Config) error {
	var errs []error

	if err := getValidator().Struct(opts); err != nil {
		errs = append(errs, translate(err)...)
	}
	if cfg.MaxLimit > 0 && opts.Limit > cfg.MaxLimit {
		errs = append(errs, &InputError{
			Field:   "limit",
			Message: fmt.Sprintf("limit must be at most %d, got %d", cfg.MaxLimit, opts.Limit),
		})
	}

	return errors.Join(errs...)
}

func translate(err error) []error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{&InputError{Field: "unknown", Message: err.Error()}}
	}

	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", fe.Field())
		case "gte":
			msg = fmt.Sprintf("%s must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value())
		case "lte":
			msg = fmt.Sprintf("%s must be at most %s, got %v", fe.Field(), fe.Param(), fe.Value())
		default:
			msg = fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
		}
		out = append(out, &InputError{Field: fe.Field(), Message: msg})
	}
	return out
}
