// Package validation parses and checks request input. Every failing field is
// reported, with its JSON path, in a single *Error.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/userreg/internal/common"
	"github.com/go-playground/validator/v10"
)

// FieldError names one failing field.
type FieldError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Error is returned for any malformed or invalid input.
type Error struct {
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	return e.Message
}

func newError(path, reason string) *Error {
	return &Error{
		Message: path + " " + reason,
		Fields:  []FieldError{{Path: path, Reason: reason}},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates v against its `validate` tags.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		f := FieldError{Path: fieldPath(fe.Namespace()), Reason: reason(fe)}
		out.Fields = append(out.Fields, f)
		msgs = append(msgs, f.Path+" "+f.Reason)
	}
	out.Message = strings.Join(msgs, "; ")

	return out
}

// fieldPath drops the root type name: "LoginInput.email" becomes "email".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "is invalid"
	}
}

func normalizeEmail(s string) string {
	return strings.TrimSpace(s)
}

// LoginInput is read from the query string.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// ParseLogin validates the login query parameters. A nil map is treated as
// an empty one.
func ParseLogin(query map[string]string) (LoginInput, error) {
	in := LoginInput{
		Email:    normalizeEmail(query["email"]),
		Password: query["password"],
	}
	if err := Struct(in); err != nil {
		return LoginInput{}, err
	}
	return in, nil
}

type PropertiesInput struct {
	FirstName string `json:"firstName" validate:"required,max=256"`
	LastName  string `json:"lastName" validate:"required,max=256"`
	DeskPhone string `json:"deskPhone" validate:"omitempty,max=256"`
	CellPhone string `json:"cellPhone" validate:"omitempty,max=256"`
	Address   string `json:"address" validate:"omitempty,max=256"`
	City      string `json:"city" validate:"omitempty,max=256"`
	State     string `json:"state" validate:"omitempty,max=256"`
	ZipCode   string `json:"zipCode" validate:"omitempty,max=256"`
	Country   string `json:"country" validate:"omitempty,max=256"`
}

// RegistrationInput is the JSON body of a registration request.
type RegistrationInput struct {
	Email      string           `json:"email" validate:"required,email"`
	Password   string           `json:"password" validate:"required,min=8"`
	Username   string           `json:"username" validate:"omitempty,max=256"`
	Properties *PropertiesInput `json:"properties" validate:"required"`
}

// ParseRegistration decodes and validates a registration body. Unknown
// fields and trailing data are rejected. A missing password is reported on
// its own, before the rest of the body is checked.
func ParseRegistration(body string) (RegistrationInput, error) {
	if strings.TrimSpace(body) == "" {
		return RegistrationInput{}, newError("body", "is required")
	}

	var in RegistrationInput
	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return RegistrationInput{}, newError("body", "must be a JSON object with known fields")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return RegistrationInput{}, newError("body", "must contain a single JSON object")
	}

	if in.Password == "" {
		return RegistrationInput{}, ErrPasswordRequired()
	}

	in.Email = normalizeEmail(in.Email)
	if err := Struct(in); err != nil {
		return RegistrationInput{}, err
	}
	return in, nil
}

// ErrPasswordRequired is the failure for a registration without a password.
func ErrPasswordRequired() *Error {
	return &Error{
		Message: "Password is required",
		Fields:  []FieldError{{Path: "password", Reason: "is required"}},
	}
}

// DeregistrationInput carries the email path parameter.
type DeregistrationInput struct {
	Email string `json:"email" validate:"required,email"`
}

func ParseDeregistration(params map[string]string) (DeregistrationInput, error) {
	in := DeregistrationInput{Email: normalizeEmail(params[common.EmailKey])}
	if err := Struct(in); err != nil {
		return DeregistrationInput{}, err
	}
	return in, nil
}
