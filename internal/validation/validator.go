// Package validation runs the per-operation input checks that must pass
// before any write reaches the store. Struct tag rules are evaluated by a
// shared go-playground validator; rules that span elements (duplicates,
// non-empty lists) are checked explicitly.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"foodgram/internal/apperr"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	slugRe     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)
)

// Validator returns the shared instance. Custom rules: hexcolor6, slug, username.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
			return hexColorRe.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugRe.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRe.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Violations is the structured result of a validation pass; empty means ok.
type Violations []apperr.Violation

func (v *Violations) Add(field, rule, message string) {
	*v = append(*v, apperr.Violation{Field: field, Rule: rule, Message: message})
}

func (v Violations) OK() bool { return len(v) == 0 }

// Err returns nil when there are no violations, otherwise a ValidationError
// with the given code.
func (v Violations) Err(code, message string) error {
	if v.OK() {
		return nil
	}
	return apperr.Validation(code, message, v...)
}

// Struct evaluates struct tags and converts failures into violations.
func Struct(s any) Violations {
	var out Violations
	err := Validator().Struct(s)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add("", "invalid", err.Error())
		return out
	}
	for _, fe := range verrs {
		out.Add(fieldPath(fe), fe.Tag(), message(fe))
	}
	return out
}

// fieldPath drops the top-level struct name: "RecipeInput.ingredients[0].amount" -> "ingredients[0].amount".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.String {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "hexcolor6":
		return "must be a hex color like #1A2B3C"
	case "slug":
		return "may contain only letters, digits, '-' and '_'"
	case "username":
		return "may contain only letters, digits and @/./+/-/_"
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}

var ruleCodes = map[string]string{
	"tags:required":        "tags_empty",
	"tags:unique":          "duplicate_tag",
	"ingredients:required": "ingredients_empty",
	"ingredients:unique":   "duplicate_ingredient",
	"cooking_time:gte":     "invalid_cooking_time",
}

// Code names the first violation with a stable reason code, or fallback.
func (v Violations) Code(fallback string) string {
	if v.OK() {
		return ""
	}
	first := v[0]
	if code, ok := ruleCodes[first.Field+":"+first.Rule]; ok {
		return code
	}
	if strings.HasSuffix(first.Field, ".amount") {
		return "invalid_amount"
	}
	return fallback
}
