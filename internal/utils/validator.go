package utils

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/estatecrawl/internal/models"
)

// MaxHeaderValueLength bounds a single custom header value (8KB).
const MaxHeaderValueLength = 8192

// ForbiddenHeaders are managed by the browser/HTTP layer itself and cannot
// be overridden via BrowserConfig.ExtraHeaders.
var ForbiddenHeaders = []string{
	"Host",
	"Content-Length",
	"Transfer-Encoding",
	"Connection",
}

// HeaderValidator checks custom headers supplied in BrowserConfig.ExtraHeaders
// against RFC 7230 token/value rules before they're attached to a navigation.
type HeaderValidator struct {
	nameRegex        *regexp.Regexp
	valueRegex       *regexp.Regexp
	maxValueLength   int
	forbiddenHeaders map[string]bool
}

func NewHeaderValidator() *HeaderValidator {
	forbidden := make(map[string]bool)
	for _, h := range ForbiddenHeaders {
		forbidden[strings.ToLower(h)] = true
	}

	return &HeaderValidator{
		nameRegex:        regexp.MustCompile(`^[A-Za-z0-9-]+$`),
		valueRegex:       regexp.MustCompile(`^[\x20-\x7E\t]*$`),
		maxValueLength:   MaxHeaderValueLength,
		forbiddenHeaders: forbidden,
	}
}

func (hv *HeaderValidator) ValidateName(name string) error {
	if name == "" {
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "header name must not be empty",
		}
	}

	if !hv.nameRegex.MatchString(name) {
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "header name contains illegal characters (letters, digits, hyphen only)",
			Suggestion: "use a token like 'X-Custom-Header'",
		}
	}

	return nil
}

func (hv *HeaderValidator) ValidateValue(name, value string) error {
	if len(value) > hv.maxValueLength {
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     fmt.Sprintf("header value too long: %d bytes (max %d)", len(value), hv.maxValueLength),
			Suggestion: fmt.Sprintf("shorten the value to under %d bytes", hv.maxValueLength),
		}
	}

	if !hv.valueRegex.MatchString(value) {
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     "header value contains non-printable or non-ASCII characters",
			Suggestion: "remove control characters and non-ASCII bytes",
		}
	}

	return nil
}

func (hv *HeaderValidator) ValidateHeader(name, value string) error {
	if hv.IsForbidden(name) {
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "this header is managed by the HTTP client and cannot be overridden",
			Suggestion: fmt.Sprintf("remove the '%s' entry from extra_headers", name),
		}
	}

	if err := hv.ValidateName(name); err != nil {
		return err
	}

	return hv.ValidateValue(name, value)
}

func (hv *HeaderValidator) IsForbidden(name string) bool {
	return hv.forbiddenHeaders[strings.ToLower(name)]
}

// Validate checks every header in headers, returning the first violation.
func (hv *HeaderValidator) Validate(headers http.Header) error {
	for name, values := range headers {
		for _, value := range values {
			if err := hv.ValidateHeader(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateExtraHeaders checks a BrowserConfig.ExtraHeaders map, the shape
// actually produced by config loading (plain strings, not http.Header).
func (hv *HeaderValidator) ValidateExtraHeaders(headers map[string]string) error {
	for name, value := range headers {
		if err := hv.ValidateHeader(name, value); err != nil {
			return err
		}
	}
	return nil
}
