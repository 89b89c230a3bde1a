// Package validation checks operator-supplied connection strings before any
// client is built from them.
package validation

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// URLValidationError reports which setting held the bad URL.
type URLValidationError struct {
	Field   string
	Message string
	URL     string
}

func (e URLValidationError) Error() string {
	return fmt.Sprintf("%s: %s (url: %s)", e.Field, e.Message, redact(e.URL))
}

var (
	HTTPSchemes     = []string{"http", "https"}
	RedisSchemes    = []string{"redis", "rediss", "unix"}
	PostgresSchemes = []string{"postgres", "postgresql"}
)

// ValidateURL requires raw to parse with a host and one of schemes. Empty
// input is accepted; callers enforce presence separately.
func ValidateURL(raw, field string, schemes []string) error {
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return URLValidationError{Field: field, Message: "invalid URL format", URL: raw}
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		return URLValidationError{Field: field, Message: "URL must include a scheme", URL: raw}
	}
	if !slices.Contains(schemes, scheme) {
		return URLValidationError{
			Field:   field,
			Message: fmt.Sprintf("URL scheme must be one of %s", strings.Join(schemes, ", ")),
			URL:     raw,
		}
	}
	if u.Host == "" && scheme != "unix" {
		return URLValidationError{Field: field, Message: "URL must include a host", URL: raw}
	}
	return nil
}

// ValidateHTTPURL is ValidateURL for http(s) endpoints, optionally refusing
// plain http.
func ValidateHTTPURL(raw, field string, requireHTTPS bool) error {
	if err := ValidateURL(raw, field, HTTPSchemes); err != nil {
		return err
	}
	if raw == "" || !requireHTTPS {
		return nil
	}
	if u, _ := url.Parse(raw); !strings.EqualFold(u.Scheme, "https") {
		return URLValidationError{Field: field, Message: "URL must use HTTPS in production", URL: raw}
	}
	return nil
}

// redact hides credentials so errors can be logged.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
