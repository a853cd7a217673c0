package vybiumzkvm

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// ErrPublicValuesExhausted is returned when reading past the committed values
var ErrPublicValuesExhausted = errors.New("public values exhausted")

// PublicValues are the u32 words a guest committed to its output channel
type PublicValues struct {
	words  []uint32
	cursor int
}

// NewPublicValues parses the little-endian byte form of public values
func NewPublicValues(raw []byte) (*PublicValues, error) {
	if len(raw)%4 != 0 {
		return nil, errors.Errorf("public values length %d is not a multiple of 4", len(raw))
	}
	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}
	return &PublicValues{words: words}, nil
}

func publicValuesFromElements(elems []field.Element) *PublicValues {
	words := make([]uint32, len(elems))
	for i, e := range elems {
		words[i] = uint32(e.Value())
	}
	return &PublicValues{words: words}
}

// ReadU32 returns the next word
func (p *PublicValues) ReadU32() (uint32, error) {
	if p.cursor >= len(p.words) {
		return 0, ErrPublicValuesExhausted
	}
	v := p.words[p.cursor]
	p.cursor++
	return v, nil
}

// ReadU64 returns the next two words as a u64, low word first
func (p *PublicValues) ReadU64() (uint64, error) {
	if p.cursor+2 > len(p.words) {
		return 0, ErrPublicValuesExhausted
	}
	lo, hi := p.words[p.cursor], p.words[p.cursor+1]
	p.cursor += 2
	return uint64(hi)<<32 | uint64(lo), nil
}

// Words returns all committed words regardless of the read cursor
func (p *PublicValues) Words() []uint32 {
	return append([]uint32(nil), p.words...)
}

// Bytes returns the little-endian byte form
func (p *PublicValues) Bytes() []byte {
	raw := make([]byte, 4*len(p.words))
	for i, w := range p.words {
		binary.LittleEndian.PutUint32(raw[4*i:], w)
	}
	return raw
}

func (p *PublicValues) elements() []field.Element {
	elems := make([]field.Element, len(p.words))
	for i, w := range p.words {
		elems[i] = field.New(uint64(w))
	}
	return elems
}
