package dto

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"payment-processing-core/internal/core/domain"
	"payment-processing-core/pkg/apperror"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var safeStringRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("safe_id", validateSafeID)
	}
}

// validateSafeID allows alphanumeric, underscore, dash, and dot.
func validateSafeID(fl validator.FieldLevel) bool {
	return safeStringRe.MatchString(fl.Field().String())
}

// BindingError converts a gin binding failure into the standard validation
// error, named by the first offending field in declaration order.
func BindingError(err error) *apperror.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return apperror.ErrValidationFailed(fieldName(first), ruleReason(first))
	}
	return apperror.ErrValidationFailed("body", "malformed request body")
}

// fieldName renders the struct namespace as a json-ish path, e.g.
// "customer.name" for ChargeRequest.Customer.Name.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return toSnake(ns)
}

func ruleReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "alpha":
		return "must contain only letters"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "safe_id":
		return "may contain only letters, digits, underscore, dash and dot"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// toSnake lowercases a Go field path, keeping acronym runs ("ID") as one
// word.
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			prevBoundary := i == 0 || s[i-1] == '.' || (s[i-1] >= 'A' && s[i-1] <= 'Z')
			if !prevBoundary {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeStruct trims surrounding whitespace from every exported string
// field (including *string) of a struct pointer, recursing into embedded
// struct fields. Values are stored as data, never rendered as markup, so
// trimming is the only rewrite applied.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(strings.TrimSpace(f.String()))
		case reflect.Struct:
			sanitizeFields(f)
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(strings.TrimSpace(elem.String()))
			}
		}
	}
}

// Validate applies the cross-field rules gin binding tags cannot express.
// Checks run in field declaration order so a request with several problems
// always reports the same one.
func (r *ChargeRequest) Validate() *apperror.AppError {
	gw := domain.GatewayKind(r.Gateway)
	if !domain.KnownGateway(gw) {
		return apperror.ErrValidationFailed("gateway", fmt.Sprintf("unknown gateway %q", r.Gateway))
	}
	if gw == domain.GatewayCard && r.PaymentMethodToken == "" {
		return apperror.ErrValidationFailed("payment_method_token", "is required for card charges")
	}
	return nil
}

// Currency normalizes the currency code for comparison with the merchant's
// settlement currency.
func (r *ChargeRequest) NormalizedCurrency() string {
	return strings.ToUpper(r.Currency)
}
