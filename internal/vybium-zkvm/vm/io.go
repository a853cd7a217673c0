package vm

import (
	"fmt"
	"io"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// IO is the execution context a guest runs against. It owns the input
// stream, the public output channel and the debug side channel.
type IO interface {
	// ReadInput returns the next input element, or an error when the
	// stream is exhausted.
	ReadInput() (field.Element, error)
	// WriteOutput appends one word to the public output.
	WriteOutput(value field.Element) error
	// Print emits a debug line. It never reaches the public output.
	Print(line string)
}

// StreamIO backs execution with an in-memory input slice
type StreamIO struct {
	input  []field.Element
	pos    int
	output []field.Element
	debug  io.Writer
}

// NewStreamIO creates a context reading from input. Debug lines go to debug
// with a "stdout: " prefix; a nil writer discards them.
func NewStreamIO(input []field.Element, debug io.Writer) *StreamIO {
	if debug == nil {
		debug = io.Discard
	}
	return &StreamIO{
		input: append([]field.Element(nil), input...),
		debug: debug,
	}
}

// ReadInput returns the next input element. It traps with
// ErrInputExhausted once every element has been read.
func (s *StreamIO) ReadInput() (field.Element, error) {
	if s.pos >= len(s.input) {
		return field.Zero, trap(ErrInputExhausted, "read past end of input (%d elements)", len(s.input))
	}
	v := s.input[s.pos]
	s.pos++
	return v, nil
}

// WriteOutput appends value to the public output
func (s *StreamIO) WriteOutput(value field.Element) error {
	s.output = append(s.output, value)
	return nil
}

// Print writes line to the debug writer with a "stdout: " prefix
func (s *StreamIO) Print(line string) {
	fmt.Fprintf(s.debug, "stdout: %s\n", line)
}

// Output returns the public output written so far
func (s *StreamIO) Output() []field.Element {
	return append([]field.Element(nil), s.output...)
}

// Remaining returns the number of unread input elements
func (s *StreamIO) Remaining() int {
	return len(s.input) - s.pos
}
