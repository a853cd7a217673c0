package vm

import (
	"github.com/pkg/errors"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Processor row columns
const (
	ColClock = iota
	ColIP
	ColCI
	ColArg
	ColStackPointer
	ColInputPointer
	ColOutputPointer
	ColStack0

	// RowWidth is the number of field elements in a row
	RowWidth = ColStack0 + StackDepth
)

// Row is the processor state before one instruction executes.
// Stack[0] is st0; slots at or beyond StackPointer are zero.
type Row struct {
	Clock         uint64
	IP            int
	CI            Instruction
	Arg           field.Element
	StackPointer  int
	InputPointer  int
	OutputPointer int
	Stack         [StackDepth]field.Element
}

// RowFromState captures the state of vm
func RowFromState(vm *VMState) (Row, error) {
	inst, err := vm.CurrentInstruction()
	if err != nil {
		return Row{}, err
	}

	row := Row{
		Clock:         vm.CycleCount,
		IP:            vm.InstructionPointer,
		CI:            inst.Instruction,
		Arg:           inst.Arg(),
		StackPointer:  vm.StackPointer,
		InputPointer:  vm.InputPointer,
		OutputPointer: vm.OutputPointer,
	}
	for i := 0; i < vm.StackPointer; i++ {
		row.Stack[i] = vm.Stack[vm.StackPointer-1-i]
	}
	return row, nil
}

// Elements flattens the row into RowWidth field elements
func (r Row) Elements() []field.Element {
	elems := make([]field.Element, RowWidth)
	elems[ColClock] = field.New(r.Clock)
	elems[ColIP] = field.New(uint64(r.IP))
	elems[ColCI] = field.New(uint64(r.CI))
	elems[ColArg] = r.Arg
	elems[ColStackPointer] = field.New(uint64(r.StackPointer))
	elems[ColInputPointer] = field.New(uint64(r.InputPointer))
	elems[ColOutputPointer] = field.New(uint64(r.OutputPointer))
	copy(elems[ColStack0:], r.Stack[:])
	return elems
}

// RowFromElements is the inverse of Elements. It rejects rows whose
// registers could not have come from an execution.
func RowFromElements(elems []field.Element) (Row, error) {
	if len(elems) != RowWidth {
		return Row{}, errors.Errorf("row has %d elements, want %d", len(elems), RowWidth)
	}

	row := Row{
		Clock:         elems[ColClock].Value(),
		IP:            int(elems[ColIP].Value()),
		CI:            Instruction(elems[ColCI].Value()),
		Arg:           elems[ColArg],
		StackPointer:  int(elems[ColStackPointer].Value()),
		InputPointer:  int(elems[ColInputPointer].Value()),
		OutputPointer: int(elems[ColOutputPointer].Value()),
	}
	copy(row.Stack[:], elems[ColStack0:])

	for _, v := range []uint64{elems[ColIP].Value(), elems[ColInputPointer].Value(), elems[ColOutputPointer].Value()} {
		if v > 1<<32 {
			return Row{}, errors.Errorf("register value %d out of range", v)
		}
	}
	if row.StackPointer > StackDepth {
		return Row{}, errors.Errorf("stack pointer %d exceeds %d", row.StackPointer, StackDepth)
	}
	for i := row.StackPointer; i < StackDepth; i++ {
		if !row.Stack[i].IsZero() {
			return Row{}, errors.Errorf("stack slot %d beyond depth %d is not zero", i, row.StackPointer)
		}
	}
	return row, nil
}

// State rebuilds a VM positioned at this row
func (r Row) State(program *Program, io IO) *VMState {
	vm := NewVMState(program, io)
	vm.CycleCount = r.Clock
	vm.InstructionPointer = r.IP
	vm.StackPointer = r.StackPointer
	vm.InputPointer = r.InputPointer
	vm.OutputPointer = r.OutputPointer
	for i := 0; i < r.StackPointer; i++ {
		vm.Stack[r.StackPointer-1-i] = r.Stack[i]
	}
	return vm
}

// Equal compares every column
func (r Row) Equal(other Row) bool {
	if r.Clock != other.Clock || r.IP != other.IP || r.CI != other.CI ||
		!r.Arg.Equal(other.Arg) || r.StackPointer != other.StackPointer ||
		r.InputPointer != other.InputPointer || r.OutputPointer != other.OutputPointer {
		return false
	}
	for i := range r.Stack {
		if !r.Stack[i].Equal(other.Stack[i]) {
			return false
		}
	}
	return true
}

// Trace is the processor execution trace
type Trace struct {
	Rows []Row

	// Cycles is the number of executed instructions, halt included
	Cycles uint64
}

// Height returns the number of recorded rows
func (t *Trace) Height() int {
	return len(t.Rows)
}

// Padded returns the rows extended to a power-of-two height of at least
// two by repeating the halting row with an advancing clock
func (t *Trace) Padded() []Row {
	height := 2
	for height < len(t.Rows) {
		height <<= 1
	}

	rows := make([]Row, height)
	copy(rows, t.Rows)
	last := t.Rows[len(t.Rows)-1]
	for i := len(t.Rows); i < height; i++ {
		last.Clock++
		rows[i] = last
	}
	return rows
}

// TraceRecorder collects processor rows during execution
type TraceRecorder struct {
	rows []Row
}

// NewTraceRecorder creates an empty recorder
func NewTraceRecorder() *TraceRecorder {
	return &TraceRecorder{rows: make([]Row, 0, 64)}
}

// RecordState records the VM state before instruction execution
func (tr *TraceRecorder) RecordState(vm *VMState) error {
	row, err := RowFromState(vm)
	if err != nil {
		return err
	}
	tr.rows = append(tr.rows, row)
	return nil
}

// Finish returns the recorded trace
func (tr *TraceRecorder) Finish() *Trace {
	return &Trace{
		Rows:   tr.rows,
		Cycles: uint64(len(tr.rows)),
	}
}
