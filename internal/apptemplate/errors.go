package apptemplate

import (
	"errors"
	"fmt"
)

// InvalidTemplateError indicates that a template cannot be scanned, loaded or filled,
// or that its plans violate a structural rule.
type InvalidTemplateError struct {
	// Reason is a human-readable description of the violation.
	Reason string
	// Line is the 1-based line of the offending placeholder, 0 when unknown.
	Line int
	// Col is the 0-based column of the offending placeholder.
	Col int
	// Err is the underlying parser error, if any.
	Err error
}

func (e *InvalidTemplateError) Error() string {
	if e == nil {
		return "invalid template"
	}
	msg := "invalid template"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" [line:%d, col:%d]", e.Line, e.Col)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidTemplateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Invalidf builds an InvalidTemplateError with a formatted reason.
func Invalidf(format string, args ...any) error {
	return &InvalidTemplateError{Reason: fmt.Sprintf(format, args...)}
}

// IsInvalidTemplate reports whether err indicates an invalid template.
func IsInvalidTemplate(err error) bool {
	var target *InvalidTemplateError
	return errors.As(err, &target)
}
