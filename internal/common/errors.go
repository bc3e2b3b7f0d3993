package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinels matched with errors.Is by the fetcher and the stores.
var (
	ErrTimeout       = errors.New("deadline exceeded")
	ErrTooLarge      = errors.New("size limit exceeded")
	ErrResourceLimit = errors.New("memory budget exceeded")
	ErrNotFound      = errors.New("not found")
)

// WrapError prefixes err with message. A nil err stays nil.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf is WrapError with a format string.
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return WrapError(err, fmt.Sprintf(format, args...))
}

func NewError(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// ValidationError rejects a single option or argument.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value == nil || e.Value == "" {
		return e.Field + ": " + e.Message
	}
	return fmt.Sprintf("%s=%v: %s", e.Field, e.Value, e.Message)
}

func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// NetworkError is a transport failure before any status line was read,
// or while reading the body.
type NetworkError struct {
	URL     string
	Reason  string
	Wrapped error
}

func (e *NetworkError) Error() string {
	var b strings.Builder
	b.WriteString("GET ")
	b.WriteString(e.URL)
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

func (e *NetworkError) Unwrap() error { return e.Wrapped }

func NewNetworkError(url, reason string, wrapped error) *NetworkError {
	return &NetworkError{URL: url, Reason: reason, Wrapped: wrapped}
}

// HTTPError carries a non-2xx status. Message is usually the status text.
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *HTTPError) Error() string {
	status := strconv.Itoa(e.StatusCode)
	if e.Message != "" {
		status += " " + e.Message
	}
	if e.URL == "" {
		return "status " + status
	}
	return "GET " + e.URL + ": status " + status
}

func NewHTTPErrorWithURL(statusCode int, message, url string) *HTTPError {
	return &HTTPError{StatusCode: statusCode, Message: message, URL: url}
}

// ScanErrorKind classifies a scan-level failure.
type ScanErrorKind string

const (
	// KindFatalFetch means the entry document could not be fetched.
	KindFatalFetch ScanErrorKind = "fatal_fetch_error"
	// KindConfig means the options were rejected before any network activity.
	KindConfig ScanErrorKind = "config_error"
	// KindCancelled means the caller cancelled the scan.
	KindCancelled ScanErrorKind = "cancelled"
)

// ScanError is the only error a scan surfaces to its caller. Everything
// below the entry document is recorded on the resource outcome instead.
type ScanError struct {
	Kind    ScanErrorKind
	Message string
	Err     error
}

func (e *ScanError) Error() string {
	msg := "[" + string(e.Kind) + "] " + e.Message
	if e.Err != nil {
		msg += " (" + e.Err.Error() + ")"
	}
	return msg
}

func (e *ScanError) Unwrap() error { return e.Err }

func NewScanError(kind ScanErrorKind, message string, err error) *ScanError {
	return &ScanError{Kind: kind, Message: message, Err: err}
}

// ScanErrorKindOf returns the kind of the first ScanError in err's chain, or "".
func ScanErrorKindOf(err error) ScanErrorKind {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Kind
	}
	return ""
}

// ErrorCollector accumulates independent failures, e.g. one per report format.
type ErrorCollector struct {
	errs []error
}

func (ec *ErrorCollector) Add(err error) {
	if err != nil {
		ec.errs = append(ec.errs, err)
	}
}

// AddWithContext adds err prefixed with context.
func (ec *ErrorCollector) AddWithContext(err error, context string) {
	ec.Add(WrapError(err, context))
}

func (ec *ErrorCollector) HasErrors() bool {
	return len(ec.errs) > 0
}

// Error returns nil, the lone error unchanged, or a joined error that
// still matches every collected error with errors.Is and errors.As.
func (ec *ErrorCollector) Error() error {
	switch len(ec.errs) {
	case 0:
		return nil
	case 1:
		return ec.errs[0]
	}
	return &collectedErrors{errs: ec.errs}
}

type collectedErrors struct {
	errs []error
}

func (c *collectedErrors) Error() string {
	parts := make([]string, len(c.errs))
	for i, err := range c.errs {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(c.errs), strings.Join(parts, "; "))
}

func (c *collectedErrors) Unwrap() []error { return c.errs }
