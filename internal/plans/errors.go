package plans

import (
	"errors"
	"fmt"
	"strings"
)

// NoSuchAppPackageError indicates that a requested plan does not exist.
type NoSuchAppPackageError struct {
	// Index is the requested plan index, -1 when the plan was requested by name.
	Index int
	// Name is the requested plan name, if any.
	Name string
	// Count is the number of plans in the template.
	Count int
	// Suggestions lists existing plan names close to Name.
	Suggestions []string
}

func (e *NoSuchAppPackageError) Error() string {
	if e == nil {
		return "no such app package"
	}
	var msg string
	if e.Name != "" {
		msg = fmt.Sprintf("no such app package %q", e.Name)
	} else {
		msg = fmt.Sprintf("no such app package %d (template has %d)", e.Index, e.Count)
	}
	if len(e.Suggestions) > 0 {
		msg += ", did you mean " + strings.Join(e.Suggestions, ", ") + "?"
	}
	return msg
}

// IsNoSuchAppPackage reports whether err indicates a missing plan.
func IsNoSuchAppPackage(err error) bool {
	var target *NoSuchAppPackageError
	return errors.As(err, &target)
}
