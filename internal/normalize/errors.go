package normalize

import (
	"errors"
	"fmt"

	"github.com/klyr/dotpath/internal/logging"
)

var (
	// ErrInvalidArgument indicates a required operand was missing.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownOp indicates a request named an operation that does not exist.
	ErrUnknownOp = errors.New("unknown operation")
)

// ArgumentError names the operand an operation was called without.
type ArgumentError struct {
	Op    Op
	Param string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s must not be null", e.Op, e.Param)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func invalidArgument(op Op, param string) error {
	err := &ArgumentError{Op: op, Param: param}
	logging.Diagnostics().Debug("rejected argument", "component", "normalize", "op", op, "param", param)
	return err
}
