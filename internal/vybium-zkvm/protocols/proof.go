package protocols

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/vm"
)

// maxLog2Height bounds the trace height a proof may claim
const maxLog2Height = 32

// Proof contains the cryptographic information to verify a computation.
// Should be used together with a Claim. Field elements are stored as
// canonical uint64 values so the proof serializes without custom codecs.
type Proof struct {
	Version          uint32       `cbor:"1,keyasint"`
	Log2PaddedHeight uint32       `cbor:"2,keyasint"`
	TraceRoot        []uint64     `cbor:"3,keyasint"`
	Openings         []RowOpening `cbor:"4,keyasint"`
	NumQueries       uint32       `cbor:"5,keyasint"`
}

// RowOpening reveals one trace row with its authentication path
type RowOpening struct {
	Index uint32     `cbor:"1,keyasint"`
	Row   []uint64   `cbor:"2,keyasint"`
	Path  [][]uint64 `cbor:"3,keyasint"`
}

// PaddedHeight returns the committed trace height
func (p *Proof) PaddedHeight() int {
	return 1 << p.Log2PaddedHeight
}

// Root returns the trace commitment
func (p *Proof) Root() (hash.Digest, error) {
	return wordsToDigest(p.TraceRoot)
}

// Validate checks the proof's shape without touching its cryptography
func (p *Proof) Validate() error {
	if p.Version != CurrentVersion {
		return errors.Errorf("proof version %d, want %d", p.Version, CurrentVersion)
	}
	if p.Log2PaddedHeight < 1 || p.Log2PaddedHeight > maxLog2Height {
		return errors.Errorf("log2 padded height %d out of range", p.Log2PaddedHeight)
	}
	if p.NumQueries == 0 || p.NumQueries > maxQueries {
		return errors.Errorf("query count %d out of range", p.NumQueries)
	}
	if _, err := p.Root(); err != nil {
		return errors.Wrap(err, "trace root")
	}
	if len(p.Openings) == 0 {
		return errors.New("proof opens no rows")
	}
	for i, o := range p.Openings {
		if int(o.Index) >= p.PaddedHeight() {
			return errors.Errorf("opening %d: index %d beyond height %d", i, o.Index, p.PaddedHeight())
		}
		if len(o.Row) != vm.RowWidth {
			return errors.Errorf("opening %d: row has %d elements, want %d", i, len(o.Row), vm.RowWidth)
		}
		if len(o.Path) != int(p.Log2PaddedHeight) {
			return errors.Errorf("opening %d: path length %d, want %d", i, len(o.Path), p.Log2PaddedHeight)
		}
		if _, err := wordsToElements(o.Row); err != nil {
			return errors.Wrapf(err, "opening %d", i)
		}
		for j, sibling := range o.Path {
			if _, err := wordsToDigest(sibling); err != nil {
				return errors.Wrapf(err, "opening %d: path node %d", i, j)
			}
		}
	}
	return nil
}

// Size returns the number of field elements in the proof
func (p *Proof) Size() int {
	size := len(p.TraceRoot)
	for _, o := range p.Openings {
		size += len(o.Row) + len(o.Path)*hash.DigestLen
	}
	return size
}

func (p *Proof) String() string {
	return fmt.Sprintf("Proof{v%d, height 2^%d, %d queries, %d openings, %d elements}",
		p.Version, p.Log2PaddedHeight, p.NumQueries, len(p.Openings), p.Size())
}

func digestToWords(d hash.Digest) []uint64 {
	words := make([]uint64, len(d))
	for i, e := range d {
		words[i] = e.Value()
	}
	return words
}

func wordsToDigest(words []uint64) (hash.Digest, error) {
	var d hash.Digest
	if len(words) != len(d) {
		return d, errors.Errorf("digest has %d elements, want %d", len(words), len(d))
	}
	for i, w := range words {
		if w >= field.P {
			return d, errors.Errorf("element %d is not canonical", i)
		}
		d[i] = field.New(w)
	}
	return d, nil
}

func elementsToWords(elems []field.Element) []uint64 {
	words := make([]uint64, len(elems))
	for i, e := range elems {
		words[i] = e.Value()
	}
	return words
}

func wordsToElements(words []uint64) ([]field.Element, error) {
	elems := make([]field.Element, len(words))
	for i, w := range words {
		if w >= field.P {
			return nil, errors.Errorf("element %d is not canonical", i)
		}
		elems[i] = field.New(w)
	}
	return elems, nil
}
