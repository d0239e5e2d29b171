package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"rightsdesk-backend/internal/constants"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = validate.RegisterValidation("song_role", func(fl validator.FieldLevel) bool {
		return constants.IsValidSongRole(fl.Field().String())
	})
	_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRe.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("strong_password", func(fl validator.FieldLevel) bool {
		return IsValidPassword(fl.Field().String())
	})
}

// FieldError is one failed rule on a request field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Struct validates s against its `validate` tags.
func Struct(s interface{}) error {
	return validate.Struct(s)
}

// Errors flattens a Struct error into field errors. Non-validation errors yield nil.
func Errors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		field := e.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		out = append(out, FieldError{Field: field, Tag: e.Tag(), Message: message(e)})
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "uuid", "uuid4":
		return e.Field() + " must be a valid UUID"
	case "url", "http_url":
		return e.Field() + " must be a valid URL"
	case "song_role":
		return e.Field() + " must be a valid song role"
	case "slug":
		return e.Field() + " may only contain lowercase letters, digits and hyphens"
	case "strong_password":
		return "Password must be at least 8 characters with a letter, a number and a special character"
	default:
		return e.Field() + " is invalid"
	}
}

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidSlug reports whether s is lowercase words of [a-z0-9] joined by single hyphens.
func IsValidSlug(s string) bool {
	return slugRe.MatchString(s)
}

// IsValidPassword requires at least 8 characters including a letter, a digit and a special character.
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter, hasDigit, hasSpecial := false, false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}
