// Package validate wraps go-playground/validator with the clinic's custom
// rules and turns failures into a single apperr validation error.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/odonto/clinic/internal/platform/apperr"
)

var (
	once sync.Once
	v    *validator.Validate
)

var cidPattern = regexp.MustCompile(`^[A-Z][0-9]{2}(\.[0-9A-Z]{1,2})?$`)

// FaceCodes are the tooth surfaces accepted on procedures.
var FaceCodes = map[string]bool{"O": true, "M": true, "D": true, "V": true, "L": true}

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("fdi_tooth", func(fl validator.FieldLevel) bool {
			return IsFDITooth(fl.Field().String())
		})
		_ = v.RegisterValidation("tooth_face", func(fl validator.FieldLevel) bool {
			return FaceCodes[fl.Field().String()]
		})
		_ = v.RegisterValidation("cid_code", func(fl validator.FieldLevel) bool {
			return cidPattern.MatchString(NormalizeCID(fl.Field().String()))
		})
		_ = v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
			return IsCPF(fl.Field().String())
		})
	})
	return v
}

// Struct validates s and returns nil or an *apperr.Error of kind validation
// whose message lists every offending field.
func Struct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return apperr.Validation(err.Error())
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fieldPath(fe), describe(fe)))
	}
	return apperr.Validation(strings.Join(msgs, "; "))
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	case "min":
		if fe.Kind() == reflect.String {
			return "must have at least " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return "must have at least " + fe.Param() + " items"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must have at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "fdi_tooth":
		return "must be a valid FDI tooth number"
	case "tooth_face":
		return "must be one of O, M, D, V, L"
	case "cid_code":
		return "must be a valid CID code"
	case "cpf":
		return "must be a valid CPF"
	case "datetime":
		return "must match the format " + fe.Param()
	case "unique":
		return "must not contain duplicates"
	default:
		return "failed on " + fe.Tag()
	}
}

// IsFDITooth accepts permanent teeth in FDI notation: 11–18, 21–28, 31–38, 41–48.
func IsFDITooth(s string) bool {
	if len(s) != 2 {
		return false
	}
	q, n := s[0], s[1]
	return q >= '1' && q <= '4' && n >= '1' && n <= '8'
}

// NormalizeCID trims and upper-cases a CID code. The same normalization is
// used when matching codes against the catalog.
func NormalizeCID(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// OnlyDigits strips punctuation from documents such as CPF.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsCPF checks length and both check digits of a Brazilian CPF.
func IsCPF(s string) bool {
	d := OnlyDigits(s)
	if len(d) != 11 {
		return false
	}
	if strings.Count(d, d[:1]) == 11 {
		return false
	}
	digit := func(n int) byte {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * (n + 1 - i)
		}
		r := (sum * 10) % 11
		if r == 10 {
			r = 0
		}
		return byte(r) + '0'
	}
	return digit(9) == d[9] && digit(10) == d[10]
}
