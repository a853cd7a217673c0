package vm

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

const u32Mask = (1 << 32) - 1

// ============================================================================
// Stack Manipulation Instructions
// ============================================================================

// execPush pushes a value onto the stack
func (vm *VMState) execPush(inst *EncodedInstruction) error {
	if err := vm.StackPush(inst.Arg()); err != nil {
		return err
	}
	return vm.IncrementIP()
}

// execPop removes n elements from the stack
func (vm *VMState) execPop(inst *EncodedInstruction) error {
	n := inst.Arg().Value()

	if n < 1 || n > MaxIOWidth {
		return trap(ErrInvalidInstruction, "invalid pop count: %d (must be 1-%d)", n, MaxIOWidth)
	}

	if vm.StackPointer < int(n) {
		return trap(ErrStackUnderflow, "cannot pop %d elements from stack of size %d", n, vm.StackPointer)
	}

	for i := uint64(0); i < n; i++ {
		if _, err := vm.StackPop(); err != nil {
			return err
		}
	}

	return vm.IncrementIP()
}

// execDup duplicates stack[i] to top
func (vm *VMState) execDup(inst *EncodedInstruction) error {
	index := inst.Arg().Value()

	if index >= StackDepth {
		return trap(ErrInvalidInstruction, "invalid dup index: %d (must be 0-15)", index)
	}

	value, err := vm.StackPeek(int(index))
	if err != nil {
		return err
	}

	if err := vm.StackPush(value); err != nil {
		return err
	}

	return vm.IncrementIP()
}

// execSwap swaps top with stack[i]
func (vm *VMState) execSwap(inst *EncodedInstruction) error {
	index := inst.Arg().Value()

	if index < 1 || index >= StackDepth {
		return trap(ErrInvalidInstruction, "invalid swap index: %d (must be 1-15)", index)
	}

	if int(index) >= vm.StackPointer {
		return trap(ErrStackUnderflow, "swap index %d out of bounds for stack of size %d", index, vm.StackPointer)
	}

	top := vm.StackPointer - 1
	other := top - int(index)
	vm.Stack[top], vm.Stack[other] = vm.Stack[other], vm.Stack[top]

	return vm.IncrementIP()
}

// ============================================================================
// Control Flow Instructions
// ============================================================================

// execHalt stops the machine; the instruction pointer stays on halt
func (vm *VMState) execHalt() error {
	vm.Halting = true
	return nil
}

func (vm *VMState) execNop() error {
	return vm.IncrementIP()
}

// execAssert pops st0 and traps unless it is 1
func (vm *VMState) execAssert() error {
	st0, err := vm.StackPop()
	if err != nil {
		return err
	}

	if !st0.Equal(field.One) {
		return trap(ErrAssertionFailed, "expected 1, got %s", st0.String())
	}

	return vm.IncrementIP()
}

// ============================================================================
// Arithmetic Instructions
// ============================================================================

func (vm *VMState) binary(op func(a, b field.Element) field.Element) error {
	b, err := vm.StackPop()
	if err != nil {
		return err
	}

	a, err := vm.StackPop()
	if err != nil {
		return err
	}

	if err := vm.StackPush(op(a, b)); err != nil {
		return err
	}

	return vm.IncrementIP()
}

func (vm *VMState) execAdd() error {
	return vm.binary(func(a, b field.Element) field.Element { return a.Add(b) })
}

func (vm *VMState) execMul() error {
	return vm.binary(func(a, b field.Element) field.Element { return a.Mul(b) })
}

func (vm *VMState) execEq() error {
	return vm.binary(func(a, b field.Element) field.Element {
		if a.Equal(b) {
			return field.One
		}
		return field.Zero
	})
}

// execSplit splits top into high and low 32-bit parts
func (vm *VMState) execSplit() error {
	a, err := vm.StackPop()
	if err != nil {
		return err
	}

	value := a.Value()

	// Push high, then low (so low is on top)
	if err := vm.StackPush(field.New(value >> 32)); err != nil {
		return err
	}
	if err := vm.StackPush(field.New(value & u32Mask)); err != nil {
		return err
	}

	return vm.IncrementIP()
}

// execLt compares the low 32 bits of st1 and st0
func (vm *VMState) execLt() error {
	return vm.binary(func(a, b field.Element) field.Element {
		if a.Value()&u32Mask < b.Value()&u32Mask {
			return field.One
		}
		return field.Zero
	})
}

// ============================================================================
// I/O Instructions
// ============================================================================

// execReadIo reads n elements from the input stream; the last one read ends on top
func (vm *VMState) execReadIo(inst *EncodedInstruction) error {
	n := inst.Arg().Value()

	if n < 1 || n > MaxIOWidth {
		return trap(ErrInvalidInstruction, "invalid read_io count: %d (must be 1-%d)", n, MaxIOWidth)
	}

	for i := uint64(0); i < n; i++ {
		value, err := vm.IO.ReadInput()
		if err != nil {
			return err
		}
		vm.InputPointer++

		if err := vm.StackPush(value); err != nil {
			return err
		}
	}

	return vm.IncrementIP()
}

// execWriteIo pops n u32 words and writes them to the public output, deepest first
func (vm *VMState) execWriteIo(inst *EncodedInstruction) error {
	n := inst.Arg().Value()

	if n < 1 || n > MaxIOWidth {
		return trap(ErrInvalidInstruction, "invalid write_io count: %d (must be 1-%d)", n, MaxIOWidth)
	}

	if vm.StackPointer < int(n) {
		return trap(ErrStackUnderflow, "cannot write %d elements from stack of size %d", n, vm.StackPointer)
	}

	values := make([]field.Element, n)
	for i := int(n) - 1; i >= 0; i-- {
		value, err := vm.StackPop()
		if err != nil {
			return err
		}
		if value.Value() > u32Mask {
			return trap(ErrOutputOutOfRange, "public output word %d exceeds u32", value.Value())
		}
		values[i] = value
	}

	for _, value := range values {
		if err := vm.IO.WriteOutput(value); err != nil {
			return err
		}
		vm.OutputPointer++
	}

	return vm.IncrementIP()
}

// execPrint formats the top nargs words, deepest first, into a debug line
func (vm *VMState) execPrint(inst *EncodedInstruction) error {
	index, nargs := DecodePrintArg(inst.Arg())

	if index >= len(vm.Program.Strings) {
		return trap(ErrInvalidInstruction, "print references missing string %d", index)
	}

	if nargs > vm.StackPointer {
		return trap(ErrStackUnderflow, "print needs %d elements, have %d", nargs, vm.StackPointer)
	}

	args := make([]interface{}, nargs)
	for i := 0; i < nargs; i++ {
		args[i] = vm.Stack[vm.StackPointer-nargs+i].Value()
	}
	vm.IO.Print(fmt.Sprintf(vm.Program.Strings[index], args...))

	return vm.IncrementIP()
}
