package keyfilter

import (
	"errors"
	"fmt"
)

// Standard error kinds that can be used with errors.Is()
var (
	ErrInvalidEnumValue   = errors.New("invalid enum value")
	ErrInvalidValueFormat = errors.New("invalid value format")
	ErrInvalidArgument    = errors.New("invalid argument")
)

// FieldError reports a conversion failure at a specific field of a filter.
// Kind is one of the Err* sentinels above.
type FieldError struct {
	Kind  error
	Path  string
	Value interface{}
	Cause error
}

// Error implements the error interface
func (e *FieldError) Error() string {
	msg := e.Kind.Error()
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Value != nil {
		msg = fmt.Sprintf("%s %q", msg, fmt.Sprint(e.Value))
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return "keyfilter: " + msg
}

// Is reports whether target is the error kind of e.
func (e *FieldError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying cause
func (e *FieldError) Unwrap() error {
	return e.Cause
}

func formatError(path string, value interface{}, cause error) error {
	return &FieldError{Kind: ErrInvalidValueFormat, Path: path, Value: value, Cause: cause}
}

func argumentError(path string, format string, args ...interface{}) error {
	return &FieldError{Kind: ErrInvalidArgument, Path: path, Cause: fmt.Errorf(format, args...)}
}

// joinPath appends a field name to a dotted path.
func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}

// indexPath appends a slice index to a path.
func indexPath(base string, i int) string {
	return fmt.Sprintf("%s[%d]", base, i)
}
