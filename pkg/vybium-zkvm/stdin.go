package vybiumzkvm

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Frame tags. Every value in the input stream is preceded by the tag of its
// width so the guest can check it reads what the host wrote.
const (
	TagU32 uint64 = 1
	TagU64 uint64 = 2
)

// Stdin is the ordered input stream handed to a guest.
// Values are consumed in the order they were written.
type Stdin struct {
	words []uint64
}

// NewStdin creates an empty input stream
func NewStdin() *Stdin {
	return &Stdin{}
}

// WriteU32 appends a u32 frame
func (s *Stdin) WriteU32(v uint32) *Stdin {
	s.words = append(s.words, TagU32, uint64(v))
	return s
}

// WriteU64 appends a u64 frame as two u32 limbs, low limb first
func (s *Stdin) WriteU64(v uint64) *Stdin {
	s.words = append(s.words, TagU64, v&0xffffffff, v>>32)
	return s
}

// Len returns the number of field elements in the stream
func (s *Stdin) Len() int {
	return len(s.words)
}

func (s *Stdin) elements() []field.Element {
	elems := make([]field.Element, len(s.words))
	for i, w := range s.words {
		elems[i] = field.New(w)
	}
	return elems
}
