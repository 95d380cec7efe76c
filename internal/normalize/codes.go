package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)
	nonDigit        = regexp.MustCompile(`[^0-9]`)
)

// NormalizeHCPCS trims whitespace, uppercases, and strips non-alphanumeric
// characters. Returns an error if the result is empty.
func NormalizeHCPCS(v string) (string, error) {
	s := strings.TrimSpace(v)
	s = strings.ToUpper(s)
	s = nonAlphanumeric.ReplaceAllString(s, "")
	if s == "" {
		return "", fmt.Errorf("empty hcpcs code")
	}
	return s, nil
}

// NormalizeNPI strips non-digit characters from a provider identifier.
// NPIs are 10-digit numbers but source extracts occasionally carry
// formatting; anything that normalizes to empty is rejected.
func NormalizeNPI(v string) (string, error) {
	s := nonDigit.ReplaceAllString(strings.TrimSpace(v), "")
	if s == "" {
		return "", fmt.Errorf("empty npi")
	}
	return s, nil
}
