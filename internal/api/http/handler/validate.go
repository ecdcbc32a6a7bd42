package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/dtroode/alumni-server/internal/model"
	"github.com/dtroode/alumni-server/internal/password"
)

const maxBodyBytes = 1 << 20

// Custom validation tags.
const (
	tagStrongPassword = "strongpassword"
	tagBcryptMax      = "bcryptmax"
	tagNotFuture      = "notfuture"
)

var fieldLabels = map[string]string{
	"classYear":       "class year",
	"studentId":       "student id",
	"fullName":        "full name",
	"newPassword":     "password",
	"currentPassword": "current password",
	"linkedInUrl":     "LinkedIn URL",
}

// fieldMessages overrides the generic message for a field and tag pair.
var fieldMessages = map[string]string{
	"classYear.min":       "class year must be between 1960 and the current year",
	"classYear.notfuture": "class year must be between 1960 and the current year",
	"studentId.number":    "student id must be 1 to 13 digits",
	"studentId.max":       "student id must be 1 to 13 digits",
	"email.email":         "email format is invalid",
	"fullName.min":        "full name is required",
}

// Validator checks decoded request bodies against their validate tags and
// reports failures keyed by JSON field name.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewValidator creates a Validator. now bounds the class year.
func NewValidator(now func() time.Time) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      now,
	}
	v.validate.RegisterTagNameFunc(jsonName)
	_ = v.validate.RegisterValidation(tagStrongPassword, strongPassword)
	_ = v.validate.RegisterValidation(tagBcryptMax, bcryptMax)
	_ = v.validate.RegisterValidation(tagNotFuture, v.notFuture)
	return v
}

// Check validates every request and merges their failures into one
// validation error.
func (v *Validator) Check(reqs ...any) error {
	var fields []model.FieldError
	for _, req := range reqs {
		err := v.validate.Struct(req)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate request: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, model.FieldError{Field: fe.Field(), Message: message(fe)})
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return model.NewValidationError(fields...)
}

func (v *Validator) notFuture(fl validator.FieldLevel) bool {
	return fl.Field().Int() <= int64(v.now().Year())
}

func strongPassword(fl validator.FieldLevel) bool {
	var upper, lower, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// bcryptMax rejects values bcrypt cannot hash. The limit is in bytes.
func bcryptMax(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= password.MaxBytes
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

func message(fe validator.FieldError) string {
	if m, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return m
	}
	name := label(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return name + " must be a valid URL"
	case tagBcryptMax:
		return fmt.Sprintf("%s must be at most %d bytes", name, password.MaxBytes)
	case tagStrongPassword:
		return name + " must contain an uppercase letter, a lowercase letter and a digit"
	}
	return name + " is invalid"
}

// decodeJSON decodes the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewValidationError(model.FieldError{Field: "body", Message: "request body is required"})
		}
		return model.NewValidationError(model.FieldError{Field: "body", Message: "request body must be valid JSON"})
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeDepartment(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// trimOptional trims *s and drops it when nothing is left.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
