package geometry

import (
	"errors"
	"fmt"
)

// ErrConstraintModel is matched by every error raised while building a model
// from body and container definitions, before any solve starts.
var ErrConstraintModel = errors.New("invalid constraint model")

// ConstraintModelError describes which input made the model unusable.
// Body is the zero-based body index, or -1 when the container itself is at fault.
type ConstraintModelError struct {
	Body   int
	Name   string
	Reason string
}

func (e *ConstraintModelError) Error() string {
	if e.Body < 0 {
		return fmt.Sprintf("%s: container: %s", ErrConstraintModel, e.Reason)
	}
	return fmt.Sprintf("%s: body %d (%s): %s", ErrConstraintModel, e.Body, e.Name, e.Reason)
}

func (e *ConstraintModelError) Is(target error) bool {
	return target == ErrConstraintModel
}

func containerError(format string, args ...any) error {
	return &ConstraintModelError{Body: -1, Reason: fmt.Sprintf(format, args...)}
}

func bodyError(index int, name, format string, args ...any) error {
	return &ConstraintModelError{Body: index, Name: name, Reason: fmt.Sprintf(format, args...)}
}
