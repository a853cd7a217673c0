package vybiumzkvm

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/protocols"
)

// Version is the SDK version recorded in every proof
const Version = "v0.1.0"

// Proof is a proof of guest execution together with its public values
type Proof struct {
	Mode         ProofMode        `cbor:"1,keyasint"`
	VkeyHash     [32]byte         `cbor:"2,keyasint"`
	PublicValues []byte           `cbor:"3,keyasint"`
	Core         *protocols.Proof `cbor:"4,keyasint"`
	Groth16      []byte           `cbor:"5,keyasint,omitempty"`
	SDKVersion   string           `cbor:"6,keyasint"`
}

// proofWire has Proof's fields without its methods, so the codec does not
// call back into MarshalBinary.
type proofWire Proof

var (
	proofEncMode cbor.EncMode
	proofDecMode cbor.DecMode
)

func init() {
	var err error
	if proofEncMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	proofDecMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Values returns a reader over the proof's public values
func (p *Proof) Values() (*PublicValues, error) {
	return NewPublicValues(p.PublicValues)
}

// MarshalBinary returns the CBOR encoding of the proof
func (p *Proof) MarshalBinary() ([]byte, error) {
	raw, err := proofEncMode.Marshal((*proofWire)(p))
	if err != nil {
		return nil, errors.Wrap(err, "encode proof")
	}
	return raw, nil
}

// UnmarshalProof decodes a CBOR-encoded proof
func UnmarshalProof(raw []byte) (*Proof, error) {
	var p Proof
	if err := proofDecMode.Unmarshal(raw, (*proofWire)(&p)); err != nil {
		return nil, verifierError(ErrCodeMalformedProof, "cannot decode proof", err)
	}
	return &p, nil
}

// Save writes the proof to path
func (p *Proof) Save(path string) error {
	raw, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, raw, 0o644), "write proof %s", path)
}

// LoadProof reads a proof written by Save
func LoadProof(path string) (*Proof, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read proof %s", path)
	}
	return UnmarshalProof(raw)
}

func (p *Proof) String() string {
	size := 0
	if p.Core != nil {
		size = p.Core.Size()
	}
	return fmt.Sprintf("Proof{Mode: %s, PublicValues: %d bytes, Core: %d elements, Groth16: %d bytes}",
		p.Mode, len(p.PublicValues), size, len(p.Groth16))
}
