package vm

import (
	"encoding/binary"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

// BinaryFormat is the current guest binary layout version
const BinaryFormat uint32 = 1

// Binary is the serialized form of a guest program
type Binary struct {
	Name    string   `cbor:"1,keyasint"`
	Format  uint32   `cbor:"2,keyasint"`
	Code    []uint64 `cbor:"3,keyasint"`
	Strings []string `cbor:"4,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// NewBinary captures program under name
func NewBinary(name string, program *Program) *Binary {
	words := program.ToWords()
	code := make([]uint64, len(words))
	for i, w := range words {
		code[i] = w.Value()
	}
	return &Binary{
		Name:    name,
		Format:  BinaryFormat,
		Code:    code,
		Strings: append([]string(nil), program.Strings...),
	}
}

// Encode returns the deterministic CBOR encoding of the binary
func (b *Binary) Encode() ([]byte, error) {
	raw, err := encMode.Marshal(b)
	if err != nil {
		return nil, errors.Wrap(err, "encode guest binary")
	}
	return raw, nil
}

// DecodeBinary parses a guest binary
func DecodeBinary(raw []byte) (*Binary, error) {
	var b Binary
	if err := decMode.Unmarshal(raw, &b); err != nil {
		return nil, errors.Wrap(err, "decode guest binary")
	}
	if b.Format != BinaryFormat {
		return nil, errors.Errorf("unsupported guest binary format %d", b.Format)
	}
	return &b, nil
}

// Program decodes and validates the instruction words
func (b *Binary) Program() (*Program, error) {
	words := make([]field.Element, len(b.Code))
	for i, w := range b.Code {
		if w >= field.P {
			return nil, errors.Errorf("word %d is not a canonical field element", i)
		}
		words[i] = field.New(w)
	}

	program, err := ProgramFromWords(words, b.Strings)
	if err != nil {
		return nil, errors.Wrapf(err, "guest %q", b.Name)
	}
	if err := ValidateProgram(program); err != nil {
		return nil, errors.Wrapf(err, "guest %q", b.Name)
	}
	return program, nil
}

// ProgramDigest commits to the exact bytes of a guest binary. The bytes are
// packed into little-endian u32 words behind a length prefix.
func ProgramDigest(raw []byte) hash.Digest {
	elems := make([]field.Element, 0, 1+(len(raw)+3)/4)
	elems = append(elems, field.New(uint64(len(raw))))
	for i := 0; i < len(raw); i += 4 {
		var chunk [4]byte
		copy(chunk[:], raw[i:])
		elems = append(elems, field.New(uint64(binary.LittleEndian.Uint32(chunk[:]))))
	}

	out := hash.HashVarlen(elems)
	var digest hash.Digest
	for i := range digest {
		digest[i] = out[i]
	}
	return digest
}
