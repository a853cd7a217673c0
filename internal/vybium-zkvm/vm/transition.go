package vm

import (
	"github.com/pkg/errors"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// replayIO feeds a single step during verification. Input comes from the
// successor row, output is checked against the claimed public output.
type replayIO struct {
	hints  []field.Element
	output []field.Element
	outPos int
}

func (r *replayIO) ReadInput() (field.Element, error) {
	if len(r.hints) == 0 {
		return field.Zero, trap(ErrInputExhausted, "no input hint available")
	}
	v := r.hints[0]
	r.hints = r.hints[1:]
	return v, nil
}

func (r *replayIO) WriteOutput(value field.Element) error {
	if r.outPos >= len(r.output) {
		return errors.Errorf("write_io at output position %d beyond claimed output of %d words", r.outPos, len(r.output))
	}
	if !r.output[r.outPos].Equal(value) {
		return errors.Errorf("write_io wrote %s at position %d, claim has %s",
			value.String(), r.outPos, r.output[r.outPos].String())
	}
	r.outPos++
	return nil
}

func (r *replayIO) Print(string) {}

// CheckTransition verifies that next follows from cur under program.
// The values a read_io consumes are taken from next's stack, and the words
// a write_io emits must match output at cur's output pointer.
func CheckTransition(program *Program, cur, next Row, output []field.Element) error {
	inst, err := program.InstructionAt(cur.IP)
	if err != nil {
		return errors.Wrapf(err, "row %d", cur.Clock)
	}
	if inst.Instruction != cur.CI || !inst.Arg().Equal(cur.Arg) {
		return errors.Errorf("row %d: current instruction %s %s does not match program %s",
			cur.Clock, cur.CI, cur.Arg.String(), inst)
	}
	if next.Clock != cur.Clock+1 {
		return errors.Errorf("row %d: successor clock is %d", cur.Clock, next.Clock)
	}

	if cur.CI == Halt {
		want := cur
		want.Clock++
		if !next.Equal(want) {
			return errors.Errorf("row %d: state changed after halt", cur.Clock)
		}
		return nil
	}

	io := &replayIO{output: output, outPos: cur.OutputPointer}
	if cur.CI == ReadIo {
		n := int(cur.Arg.Value())
		if n >= 1 && n <= MaxIOWidth && n <= next.StackPointer {
			io.hints = make([]field.Element, n)
			for i := 0; i < n; i++ {
				io.hints[i] = next.Stack[n-1-i]
			}
		}
	}

	vm := cur.State(program, io)
	if err := vm.Step(); err != nil {
		return errors.Wrapf(err, "row %d: replay %s", cur.Clock, inst)
	}

	want, err := RowFromState(vm)
	if err != nil {
		return errors.Wrapf(err, "row %d: successor state", cur.Clock)
	}
	if !next.Equal(want) {
		return errors.Errorf("row %d: successor row does not follow from %s", cur.Clock, inst)
	}
	return nil
}

// CheckInitial verifies that row is the machine's start state
func CheckInitial(row Row) error {
	if row.Clock != 0 || row.IP != 0 || row.StackPointer != 0 ||
		row.InputPointer != 0 || row.OutputPointer != 0 {
		return errors.New("first row is not the initial state")
	}
	for i := range row.Stack {
		if !row.Stack[i].IsZero() {
			return errors.New("first row has a non-empty stack")
		}
	}
	return nil
}

// CheckFinal verifies that row halts after writing outputLen words
func CheckFinal(program *Program, row Row, outputLen int) error {
	inst, err := program.InstructionAt(row.IP)
	if err != nil {
		return errors.Wrap(err, "last row")
	}
	if row.CI != Halt || inst.Instruction != Halt {
		return errors.Errorf("last row executes %s, want halt", inst)
	}
	if row.OutputPointer != outputLen {
		return errors.Errorf("last row wrote %d output words, claim has %d", row.OutputPointer, outputLen)
	}
	return nil
}
