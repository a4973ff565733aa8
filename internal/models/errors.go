package models

import (
	"fmt"
	"strings"
)

// ConfigError wraps a configuration-layer failure with the offending path.
// Mirrors the teacher's models.ConfigError shape (errors.Unwrap-friendly).
type ConfigError struct {
	FilePath string
	Cause    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error [%s]: %v", e.FilePath, e.Cause)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

func errUnknownMode(s string) error {
	return fmt.Errorf("unknown scraping mode %q", s)
}

// TransientError wraps a network-level failure (timeout, DNS, connection
// refused, browser disconnected) that is recovered locally via retry and
// counted against consecutive_failures. See spec §7.
type TransientError struct {
	URL   string
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error navigating %s: %v", e.URL, e.Cause)
}

func (e *TransientError) Unwrap() error { return e.Cause }

// DetectionError signals that the target site served anti-automation
// content instead of the requested resource.
type DetectionError struct {
	URL string
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("bot detection triggered at %s", e.URL)
}

// ExtractionEmptyError signals a page loaded but yielded no meaningful
// fields. Soft failure: retried once with a short cooldown.
type ExtractionEmptyError struct {
	URL string
}

func (e *ExtractionEmptyError) Error() string {
	return fmt.Sprintf("extraction produced no usable fields for %s", e.URL)
}

// FatalError signals a condition that aborts the session outright: corrupt
// configuration, unwritable output directory, unavailable tracker store.
type FatalError struct {
	Reason string
	Cause  error
}

func (e *FatalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fatal: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("fatal: %s", e.Reason)
}

func (e *FatalError) Unwrap() error { return e.Cause }

// ValidationError signals a malformed entry in BrowserConfig.ExtraHeaders:
// an illegal header name/value or an attempt to override a header the HTTP
// client manages itself.
type ValidationError struct {
	Field      string
	HeaderName string
	Reason     string
	Suggestion string
}

func (e *ValidationError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("invalid header %s (%s): %s (%s)", e.HeaderName, e.Field, e.Reason, e.Suggestion)
	}
	return fmt.Sprintf("invalid header %s (%s): %s", e.HeaderName, e.Field, e.Reason)
}

// IsRestartTrigger reports whether err's message matches one of the
// low-level failure strings that should cause the caller to restart the
// browser session and retry the current URL (spec §4.2).
func IsRestartTrigger(errText string) bool {
	lower := strings.ToLower(errText)
	for _, trigger := range restartTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

var restartTriggers = []string{
	"connection refused",
	"session deleted",
	"window closed",
	"chrome not reachable",
	"dns error",
	"network error",
	"timeout",
	"context deadline exceeded",
	"no such window",
}
