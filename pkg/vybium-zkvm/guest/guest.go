// Package guest assembles guest programs for the Vybium zkVM.
//
// A guest is written as a sequence of builder calls. The typed helpers
// (ReadU32, AddU32, WriteU32, Println) expand to short instruction sequences
// that match how the host SDK frames its input stream:
//
//	bin, err := guest.New("sum").
//		ReadU32().
//		ReadU32().
//		AddU32().
//		WriteU32().
//		Halt().
//		Build()
package guest

import (
	"github.com/pkg/errors"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/vm"
	vybiumzkvm "github.com/vybium/vybium-zkvm/pkg/vybium-zkvm"
)

// Builder assembles a guest program. The first error sticks and is
// returned by Build.
type Builder struct {
	name    string
	program *vm.Program
	err     error
}

// New starts a program called name
func New(name string) *Builder {
	return &Builder{
		name:    name,
		program: vm.NewProgram(),
	}
}

func (b *Builder) emit(inst vm.Instruction, arg ...field.Element) *Builder {
	if b.err != nil {
		return b
	}
	var a *field.Element
	if len(arg) > 0 {
		a = &arg[0]
	}
	ei, err := vm.NewEncodedInstruction(inst, a)
	if err != nil {
		b.err = errors.Wrapf(err, "instruction %d", len(b.program.Instructions))
		return b
	}
	b.program.AddInstruction(ei)
	return b
}

// Push pushes a constant
func (b *Builder) Push(v uint64) *Builder {
	return b.emit(vm.Push, field.New(v))
}

// Pop discards the top n elements
func (b *Builder) Pop(n int) *Builder {
	return b.emit(vm.Pop, field.New(uint64(n)))
}

// Dup pushes a copy of st{i}
func (b *Builder) Dup(i int) *Builder {
	return b.emit(vm.Dup, field.New(uint64(i)))
}

// Swap exchanges st0 and st{i}
func (b *Builder) Swap(i int) *Builder {
	return b.emit(vm.Swap, field.New(uint64(i)))
}

// Add adds st0 and st1 in the field
func (b *Builder) Add() *Builder {
	return b.emit(vm.Add)
}

// Assert traps unless st0 is 1
func (b *Builder) Assert() *Builder {
	return b.emit(vm.Assert)
}

// Nop does nothing for one cycle
func (b *Builder) Nop() *Builder {
	return b.emit(vm.Nop)
}

// Halt stops the machine. Every program ends with it.
func (b *Builder) Halt() *Builder {
	return b.emit(vm.Halt)
}

// assertU32 traps unless st0 fits in 32 bits. Stack is unchanged.
func (b *Builder) assertU32() *Builder {
	return b.Dup(0).
		emit(vm.Split).
		Pop(1).
		Push(0).
		emit(vm.Eq).
		Assert()
}

// ReadU32 reads one u32 frame and leaves its value on top.
// Traps if the input is exhausted or the next frame is not a u32.
func (b *Builder) ReadU32() *Builder {
	return b.emit(vm.ReadIo, field.New(2)).
		Swap(1).
		Push(vybiumzkvm.TagU32).
		emit(vm.Eq).
		Assert().
		assertU32()
}

// ReadU64 reads one u64 frame and leaves it as two limbs, low limb on top
func (b *Builder) ReadU64() *Builder {
	return b.emit(vm.ReadIo, field.New(3)).
		Swap(2).
		Push(vybiumzkvm.TagU64).
		emit(vm.Eq).
		Assert().
		assertU32().
		Swap(1).
		assertU32().
		Swap(1)
}

// AddU32 replaces st0 and st1 with their sum modulo 2^32
func (b *Builder) AddU32() *Builder {
	return b.Add().
		emit(vm.Split).
		Swap(1).
		Pop(1)
}

// WriteU32 pops st0 and commits it to the public values
func (b *Builder) WriteU32() *Builder {
	return b.emit(vm.WriteIo, field.New(1))
}

// Println writes format, filled with the top nargs stack words (deepest
// first), to the debug output. The stack is unchanged and nothing is
// committed.
func (b *Builder) Println(format string, nargs int) *Builder {
	if b.err != nil {
		return b
	}
	if nargs < 0 || nargs > vm.StackDepth {
		b.err = errors.Errorf("println takes 0-%d arguments, got %d", vm.StackDepth, nargs)
		return b
	}
	index := len(b.program.Strings)
	b.program.Strings = append(b.program.Strings, format)
	return b.emit(vm.Print, vm.PrintArg(index, nargs))
}

// Build encodes the program into a guest binary
func (b *Builder) Build() (*vybiumzkvm.GuestBinary, error) {
	if b.err != nil {
		return nil, errors.Wrapf(b.err, "assemble %s", b.name)
	}
	raw, err := vm.NewBinary(b.name, b.program).Encode()
	if err != nil {
		return nil, err
	}
	return vybiumzkvm.NewGuestBinary(raw)
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *vybiumzkvm.GuestBinary {
	bin, err := b.Build()
	if err != nil {
		panic(err)
	}
	return bin
}
