package vm

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a guest trap
type ErrorKind int

const (
	ErrInvalidInstruction ErrorKind = iota + 1
	ErrInputExhausted
	ErrAssertionFailed
	ErrStackOverflow
	ErrStackUnderflow
	ErrOutputOutOfRange
	ErrCycleLimit
	ErrAlreadyHalted
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidInstruction:
		return "invalid instruction"
	case ErrInputExhausted:
		return "input exhausted"
	case ErrAssertionFailed:
		return "assertion failed"
	case ErrStackOverflow:
		return "stack overflow"
	case ErrStackUnderflow:
		return "stack underflow"
	case ErrOutputOutOfRange:
		return "output out of range"
	case ErrCycleLimit:
		return "cycle limit"
	case ErrAlreadyHalted:
		return "already halted"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ExecutionError is returned when the guest traps. Clock and IP locate the
// instruction that failed.
type ExecutionError struct {
	Kind    ErrorKind
	Clock   uint64
	IP      int
	Message string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s at cycle %d, IP %d: %s", e.Kind, e.Clock, e.IP, e.Message)
}

// Is matches any ExecutionError of the same kind
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	return ok && t.Kind == e.Kind
}

func trap(kind ErrorKind, format string, args ...interface{}) error {
	return &ExecutionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the trap kind carried by err, if any
func KindOf(err error) (ErrorKind, bool) {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return 0, false
}
