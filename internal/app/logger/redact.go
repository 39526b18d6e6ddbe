package logger

import "strings"

// RedactCredential keeps the scheme of an authorization value and masks the rest.
func RedactCredential(v string) string {
	if v == "" {
		return ""
	}
	scheme, _, found := strings.Cut(v, " ")
	if !found {
		return "***"
	}
	return scheme + " ***"
}
