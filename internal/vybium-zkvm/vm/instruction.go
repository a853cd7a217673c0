// Package vm provides the Vybium zkVM instruction set and execution engine
package vm

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Instruction represents a Vybium zkVM instruction
// Opcode values follow the Triton VM numbering for the instructions kept here
type Instruction uint32

// Vybium zkVM Instruction Set Architecture (ISA)
const (
	// ========== Stack Manipulation ==========

	// Push pushes a value onto the stack
	Push Instruction = 1

	// Pop removes n elements from the stack
	Pop Instruction = 3

	// Dup duplicates the element at stack[i] to the top
	Dup Instruction = 33

	// Swap swaps the top element with stack[i]
	Swap Instruction = 41

	// ========== Control Flow ==========

	// Halt terminates program execution
	Halt Instruction = 0

	// Nop does nothing
	Nop Instruction = 8

	// Assert asserts that the top of stack is 1 and pops it
	Assert Instruction = 10

	// ========== Base Field Arithmetic ==========

	// Add adds top two stack elements
	Add Instruction = 42

	// Mul multiplies top two stack elements
	Mul Instruction = 50

	// Eq checks equality of top two stack elements (1 if equal, 0 otherwise)
	Eq Instruction = 58

	// ========== U32 Arithmetic ==========

	// Split splits top element into high and low 32-bit parts, low on top
	Split Instruction = 4

	// Lt pushes 1 if st1 < st0 as u32 values
	Lt Instruction = 6

	// ========== I/O ==========

	// ReadIo reads n elements from the input stream
	ReadIo Instruction = 73

	// WriteIo writes n elements to the public output channel
	WriteIo Instruction = 19

	// Print formats stack words into a debug string and sends it to the
	// debug writer. The stack is left untouched.
	Print Instruction = 96
)

// StackDepth is the number of operational stack registers
const StackDepth = 16

// MaxIOWidth bounds the argument of read_io, write_io and pop
const MaxIOWidth = 5

// InstructionInfo provides metadata about an instruction
type InstructionInfo struct {
	Opcode      Instruction
	Name        string
	Description string
	Size        int  // Number of words (1 or 2)
	StackEffect int  // Minimum number of elements required, negated
	HasArg      bool // Whether instruction takes an argument
}

// AllInstructions returns information about all Vybium zkVM instructions
var AllInstructions = map[Instruction]InstructionInfo{
	Push: {Push, "push", "Push value onto stack", 2, 1, true},
	Pop:  {Pop, "pop", "Remove n elements from stack", 2, -1, true},
	Dup:  {Dup, "dup", "Duplicate stack[i] to top", 2, 1, true},
	Swap: {Swap, "swap", "Swap top with stack[i]", 2, 0, true},

	Halt:   {Halt, "halt", "Terminate execution", 1, 0, false},
	Nop:    {Nop, "nop", "No operation", 1, 0, false},
	Assert: {Assert, "assert", "Assert top is 1", 1, -1, false},

	Add: {Add, "add", "Add top two elements", 1, -2, false},
	Mul: {Mul, "mul", "Multiply top two elements", 1, -2, false},
	Eq:  {Eq, "eq", "Check equality", 1, -2, false},

	Split: {Split, "split", "Split into high/low 32-bit", 1, -1, false},
	Lt:    {Lt, "lt", "Less than (unsigned)", 1, -2, false},

	ReadIo:  {ReadIo, "read_io", "Read from input stream", 2, 1, true},
	WriteIo: {WriteIo, "write_io", "Write to public output", 2, -1, true},
	Print:   {Print, "print", "Write a debug line", 2, 0, true},
}

// String returns the name of the instruction
func (i Instruction) String() string {
	if info, ok := AllInstructions[i]; ok {
		return info.Name
	}
	return fmt.Sprintf("unknown(%d)", i)
}

// Info returns metadata about the instruction
func (i Instruction) Info() (InstructionInfo, error) {
	info, ok := AllInstructions[i]
	if !ok {
		return InstructionInfo{}, errors.Errorf("unknown instruction: %d", i)
	}
	return info, nil
}

// Size returns the number of words the instruction occupies
func (i Instruction) Size() int {
	info, err := i.Info()
	if err != nil {
		return 1
	}
	return info.Size
}

// StackEffect returns the number of elements an instruction needs on the
// stack, as a negative number, or zero when it needs none
func (i Instruction) StackEffect() int {
	info, err := i.Info()
	if err != nil {
		return 0
	}
	return info.StackEffect
}

// HasArgument returns whether the instruction takes an argument
func (i Instruction) HasArgument() bool {
	info, err := i.Info()
	if err != nil {
		return false
	}
	return info.HasArg
}

// EncodedInstruction represents a fully-encoded instruction with its argument
type EncodedInstruction struct {
	Instruction Instruction
	Argument    *field.Element // nil if no argument
}

// NewEncodedInstruction creates a new encoded instruction
func NewEncodedInstruction(inst Instruction, arg *field.Element) (*EncodedInstruction, error) {
	info, err := inst.Info()
	if err != nil {
		return nil, err
	}

	if info.HasArg && arg == nil {
		return nil, errors.Errorf("instruction %s requires an argument", inst)
	}

	if !info.HasArg && arg != nil {
		return nil, errors.Errorf("instruction %s does not take an argument", inst)
	}

	return &EncodedInstruction{
		Instruction: inst,
		Argument:    arg,
	}, nil
}

// Arg returns the argument, or zero for instructions without one
func (ei *EncodedInstruction) Arg() field.Element {
	if ei.Argument == nil {
		return field.Zero
	}
	return *ei.Argument
}

// Words returns the instruction as field elements for program memory
func (ei *EncodedInstruction) Words() []field.Element {
	if ei.Instruction.Size() == 1 {
		return []field.Element{field.New(uint64(ei.Instruction))}
	}
	return []field.Element{field.New(uint64(ei.Instruction)), ei.Arg()}
}

// String renders the instruction in assembly form
func (ei *EncodedInstruction) String() string {
	if ei.Argument == nil {
		return ei.Instruction.String()
	}
	return ei.Instruction.String() + " " + ei.Argument.String()
}

// DecodeInstruction decodes an instruction from field elements
func DecodeInstruction(words []field.Element, offset int) (*EncodedInstruction, error) {
	if offset < 0 || offset >= len(words) {
		return nil, errors.Errorf("offset %d out of bounds", offset)
	}

	opcodeValue := words[offset].Value()
	if opcodeValue > uint64(^uint32(0)) {
		return nil, errors.Errorf("unknown opcode: %d", opcodeValue)
	}
	opcode := Instruction(opcodeValue)

	info, err := opcode.Info()
	if err != nil {
		return nil, errors.Errorf("unknown opcode: %d", opcode)
	}

	var arg *field.Element
	if info.HasArg {
		if offset+1 >= len(words) {
			return nil, errors.Errorf("instruction %s requires argument but none found", opcode)
		}
		value := words[offset+1]
		arg = &value
	}

	return NewEncodedInstruction(opcode, arg)
}

// Program represents a Vybium zkVM program
type Program struct {
	Instructions []*EncodedInstruction
	Length       int // Total words

	// Strings is the debug string table referenced by print
	Strings []string

	words []field.Element
}

// NewProgram creates a new program
func NewProgram() *Program {
	return &Program{
		Instructions: make([]*EncodedInstruction, 0),
		Length:       0,
	}
}

// ProgramFromWords decodes a flat word sequence into a program
func ProgramFromWords(words []field.Element, strs []string) (*Program, error) {
	program := NewProgram()
	for offset := 0; offset < len(words); {
		inst, err := DecodeInstruction(words, offset)
		if err != nil {
			return nil, errors.Wrapf(err, "word %d", offset)
		}
		program.AddInstruction(inst)
		offset += inst.Instruction.Size()
	}
	program.Strings = append([]string(nil), strs...)
	program.ToWords()
	return program, nil
}

// AddInstruction adds an instruction to the program
func (p *Program) AddInstruction(inst *EncodedInstruction) {
	p.Instructions = append(p.Instructions, inst)
	p.Length += inst.Instruction.Size()
	p.words = nil
}

// ToWords converts the program to field elements for execution
func (p *Program) ToWords() []field.Element {
	if p.words != nil {
		return p.words
	}
	words := make([]field.Element, 0, p.Length)
	for _, inst := range p.Instructions {
		words = append(words, inst.Words()...)
	}
	p.words = words
	return words
}

// InstructionAt decodes the instruction whose first word is at address ip
func (p *Program) InstructionAt(ip int) (*EncodedInstruction, error) {
	if ip < 0 || ip >= p.Length {
		return nil, errors.Errorf("instruction pointer out of bounds: %d", ip)
	}
	return DecodeInstruction(p.ToWords(), ip)
}

// ValidateProgram validates a program for correctness
func ValidateProgram(program *Program) error {
	if len(program.Instructions) == 0 {
		return errors.New("empty program")
	}

	lastInst := program.Instructions[len(program.Instructions)-1]
	if lastInst.Instruction != Halt {
		return errors.New("program must end with Halt instruction")
	}

	for i, inst := range program.Instructions {
		if inst.Instruction != Print {
			continue
		}
		index, nargs := DecodePrintArg(inst.Arg())
		if index >= len(program.Strings) {
			return errors.Errorf("instruction %d: print references string %d of %d", i, index, len(program.Strings))
		}
		if nargs > StackDepth {
			return errors.Errorf("instruction %d: print takes %d arguments", i, nargs)
		}
	}

	return nil
}

// PrintArg packs a string table index and an argument count into the
// argument word of a print instruction
func PrintArg(index, nargs int) field.Element {
	return field.New(uint64(index)<<8 | uint64(nargs&0xff))
}

// DecodePrintArg is the inverse of PrintArg
func DecodePrintArg(arg field.Element) (index, nargs int) {
	v := arg.Value()
	return int(v >> 8), int(v & 0xff)
}
