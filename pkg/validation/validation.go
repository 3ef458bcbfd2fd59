// Package validation wraps go-playground/validator with the custom
// rules shared by tool input structs and the settings loader. Messages
// are user-facing and land verbatim in tool response envelopes.
package validation

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sheetkit/excel-mcp-server/pkg/pagination"
)

var (
	v         *validator.Validate
	cellRefRe = regexp.MustCompile(`^\$?[A-Za-z]{1,3}\$?[0-9]{1,7}$`)
)

// Validator returns a singleton validator with custom rules registered.
func Validator() *validator.Validate {
	if v == nil {
		v = validator.New()
		// Custom: Excel file path must have a supported extension
		_ = v.RegisterValidation("filepath_ext", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return false
			}
			s = strings.ToLower(s)
			return strings.HasSuffix(s, ".xlsx") || strings.HasSuffix(s, ".xlsm")
		})
		// Custom: single A1-style cell reference like A1 or $B$2
		_ = v.RegisterValidation("cellref", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return false
			}
			return cellRefRe.MatchString(s)
		})
		// Custom: cursor must be decodable via pagination.DecodeCursor
		_ = v.RegisterValidation("cursor", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true // empty is allowed; use omitempty with this tag
			}
			// Quick URL-safe base64 precheck
			if _, err := base64.RawURLEncoding.DecodeString(s); err != nil {
				return false
			}
			if _, err := pagination.DecodeCursor(s); err != nil {
				return false
			}
			return true
		})
	}
	return v
}

// ValidateStruct validates a struct and returns a user-friendly message
// suitable for response envelopes. Returns empty string when valid.
func ValidateStruct(s any) string {
	if err := Validator().Struct(s); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			field := snakeCase(fe.Field())
			switch fe.Tag() {
			case "required":
				return fmt.Sprintf("%s is required", field)
			case "filepath_ext":
				return fmt.Sprintf("%s must be an Excel file (.xlsx or .xlsm)", field)
			case "cellref":
				return fmt.Sprintf("%s must be an A1-style cell reference (e.g. B2)", field)
			case "cursor":
				return "failed to decode cursor; restart pagination from the first page"
			case "oneof":
				return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
			case "min", "max", "gte", "lte":
				return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
			}
			// Fallback generic
			return fmt.Sprintf("invalid %s", field)
		}
		return "invalid inputs"
	}
	return ""
}

// snakeCase lowers a Go field name to the snake_case spelling used in
// tool schemas, so messages reference the name callers actually sent.
func snakeCase(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
