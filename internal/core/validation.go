// internal/core/validation.go
package core

import (
	"regexp"
	"strings"
)

// Regular expression for valid table/column names (alphanumeric + underscore)
var nameValidationRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// MaxDataTypeLength bounds the free-form column type label
const MaxDataTypeLength = 128

// IsValidIdentifier checks if a string is a valid table or column name.
// Names are emitted unquoted in generated DDL, so only word characters pass.
func IsValidIdentifier(name string) bool {
	return nameValidationRegex.MatchString(name) && len(name) > 0 && len(name) <= 64
}

// NormalizeDataType trims a column type label. Types are opaque to the
// designer; only empty labels, overlong labels and statement breaks are refused.
func NormalizeDataType(dataType string) (string, bool) {
	trimmed := strings.TrimSpace(dataType)
	if trimmed == "" || len(trimmed) > MaxDataTypeLength {
		return "", false
	}
	if strings.ContainsAny(trimmed, ";\n\r") {
		return "", false
	}
	return trimmed, true
}
