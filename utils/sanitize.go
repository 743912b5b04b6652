package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks, keeping basic formatting. Used for notes.
func Sanitize(input string) string {
	return richPolicy.Sanitize(input)
}

// SanitizePlain strips all markup and surrounding space. Used for display names.
func SanitizePlain(input string) string {
	return strings.TrimSpace(plainPolicy.Sanitize(input))
}
