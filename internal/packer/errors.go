package packer

import (
	"errors"
	"fmt"

	"github.com/junekyoopark/ReUSV/internal/geometry"
)

var (
	// ErrVerification is returned when a converged layout fails the
	// independent feasibility check.
	ErrVerification = errors.New("converged layout failed feasibility check")
	// ErrUnknownExample is returned for an unknown built-in problem name.
	ErrUnknownExample = errors.New("unknown example problem")
)

func verificationError(violations []geometry.Violation, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %w", ErrVerification, cause)
	}
	return fmt.Errorf("%w: %d violated constraints, first %s", ErrVerification, len(violations), violations[0])
}
