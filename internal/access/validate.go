package access

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"controle-acesso/internal/cpf"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports malformed input. It is raised before any business
// rule runs and never produces an access log entry.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type submissionShape struct {
	Name     string `json:"name" validate:"required,min=2"`
	IDNumber string `json:"cpf" validate:"required,len=11,numeric"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

var fieldMessages = map[string]string{
	"name": "name must have at least 2 characters",
	"cpf":  cpf.ErrWrongLength.Error(),
}

// ValidateSubmission checks the shape of a submission: a name of at least two
// characters after trimming and an identification number with 11 digits.
func ValidateSubmission(s Submission) error {
	shape := submissionShape{
		Name:     strings.TrimSpace(s.Name),
		IDNumber: cpf.Digits(s.IDNumber),
	}

	err := validate.Struct(shape)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: map[string]string{}}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = fieldMessages[fe.Field()]
	}
	return out
}
