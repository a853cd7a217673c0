package vm

import (
	"github.com/pkg/errors"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// DefaultMaxCycles bounds execution when the caller does not
const DefaultMaxCycles = 1 << 20

// VMState represents the complete state of the Vybium zkVM
type VMState struct {
	// Program memory (read-only)
	Program *Program

	// IO is the guest's execution context
	IO IO

	// Operational stack, bottom first. Stack[StackPointer-1] is st0.
	Stack        [StackDepth]field.Element
	StackPointer int

	// Stream positions, mirrored into the trace
	InputPointer  int
	OutputPointer int

	// Execution state
	CycleCount         uint64
	InstructionPointer int
	Halting            bool
}

// NewVMState creates a VM with an empty stack at address 0
func NewVMState(program *Program, io IO) *VMState {
	return &VMState{
		Program: program,
		IO:      io,
	}
}

// Run executes the program until halt or error
func (vm *VMState) Run(maxCycles uint64) error {
	if maxCycles == 0 {
		maxCycles = DefaultMaxCycles
	}
	for !vm.Halting {
		if vm.CycleCount >= maxCycles {
			return vm.locate(trap(ErrCycleLimit, "execution exceeded %d cycles", maxCycles))
		}
		if err := vm.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes one instruction
func (vm *VMState) Step() error {
	if vm.Halting {
		return vm.locate(trap(ErrAlreadyHalted, "machine already halted"))
	}

	inst, err := vm.CurrentInstruction()
	if err != nil {
		return vm.locate(trap(ErrInvalidInstruction, "%v", err))
	}

	if need := -inst.Instruction.StackEffect(); need > 0 && vm.StackPointer < need {
		return vm.locate(trap(ErrStackUnderflow, "%s needs %d elements, have %d", inst, need, vm.StackPointer))
	}

	if err := vm.ExecuteInstruction(inst); err != nil {
		return vm.locate(err)
	}

	vm.CycleCount++
	return nil
}

// locate stamps the current clock and address onto a trap
func (vm *VMState) locate(err error) error {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		ee.Clock = vm.CycleCount
		ee.IP = vm.InstructionPointer
		return ee
	}
	return errors.Wrapf(err, "cycle %d, IP %d", vm.CycleCount, vm.InstructionPointer)
}

// CurrentInstruction fetches the current instruction
func (vm *VMState) CurrentInstruction() (*EncodedInstruction, error) {
	return vm.Program.InstructionAt(vm.InstructionPointer)
}

// ExecuteInstruction dispatches to the appropriate instruction handler
func (vm *VMState) ExecuteInstruction(inst *EncodedInstruction) error {
	switch inst.Instruction {
	// Stack Manipulation
	case Push:
		return vm.execPush(inst)
	case Pop:
		return vm.execPop(inst)
	case Dup:
		return vm.execDup(inst)
	case Swap:
		return vm.execSwap(inst)

	// Control Flow
	case Halt:
		return vm.execHalt()
	case Nop:
		return vm.execNop()
	case Assert:
		return vm.execAssert()

	// Base Field Arithmetic
	case Add:
		return vm.execAdd()
	case Mul:
		return vm.execMul()
	case Eq:
		return vm.execEq()

	// U32 Arithmetic
	case Split:
		return vm.execSplit()
	case Lt:
		return vm.execLt()

	// I/O
	case ReadIo:
		return vm.execReadIo(inst)
	case WriteIo:
		return vm.execWriteIo(inst)
	case Print:
		return vm.execPrint(inst)

	default:
		return trap(ErrInvalidInstruction, "unknown instruction: %d", inst.Instruction)
	}
}

// Stack access helpers

// StackPush pushes a value onto the stack
func (vm *VMState) StackPush(value field.Element) error {
	if vm.StackPointer >= StackDepth {
		return trap(ErrStackOverflow, "stack holds at most %d elements", StackDepth)
	}
	vm.Stack[vm.StackPointer] = value
	vm.StackPointer++
	return nil
}

// StackPop removes and returns st0
func (vm *VMState) StackPop() (field.Element, error) {
	if vm.StackPointer <= 0 {
		return field.Zero, trap(ErrStackUnderflow, "pop from empty stack")
	}
	vm.StackPointer--
	value := vm.Stack[vm.StackPointer]
	vm.Stack[vm.StackPointer] = field.Zero
	return value, nil
}

// StackPeek returns the element at depth (0 = top)
func (vm *VMState) StackPeek(depth int) (field.Element, error) {
	if depth < 0 || depth >= vm.StackPointer {
		return field.Zero, trap(ErrStackUnderflow, "stack peek out of bounds: depth %d, size %d", depth, vm.StackPointer)
	}
	return vm.Stack[vm.StackPointer-1-depth], nil
}

// IncrementIP advances the instruction pointer past the current instruction
func (vm *VMState) IncrementIP() error {
	inst, err := vm.CurrentInstruction()
	if err != nil {
		return trap(ErrInvalidInstruction, "%v", err)
	}
	vm.InstructionPointer += inst.Instruction.Size()
	return nil
}

// ExecuteAndTrace executes the loaded program and records one row per
// cycle, taken before the instruction runs. The halting row is the last one.
func (vm *VMState) ExecuteAndTrace(maxCycles uint64) (*Trace, error) {
	if maxCycles == 0 {
		maxCycles = DefaultMaxCycles
	}
	recorder := NewTraceRecorder()

	for !vm.Halting {
		if vm.CycleCount >= maxCycles {
			return nil, vm.locate(trap(ErrCycleLimit, "execution exceeded %d cycles", maxCycles))
		}

		// Record state BEFORE execution
		if err := recorder.RecordState(vm); err != nil {
			return nil, vm.locate(trap(ErrInvalidInstruction, "%v", err))
		}

		if err := vm.Step(); err != nil {
			return nil, err
		}
	}

	return recorder.Finish(), nil
}
