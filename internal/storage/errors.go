package storage

import (
	"errors"
	"fmt"
)

// NotFoundError indicates that no template is stored under the given id.
type NotFoundError struct {
	// ID is the requested template id.
	ID string
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return "template not found"
	}
	return fmt.Sprintf("template %q not found", e.ID)
}

// IsNotFound reports whether err indicates a missing template.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
