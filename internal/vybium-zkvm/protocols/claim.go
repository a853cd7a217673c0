// Package protocols implements the execution proof: a Merkle commitment to
// the processor trace opened at Fiat-Shamir sampled transitions
package protocols

import (
	"github.com/pkg/errors"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

// CurrentVersion is the version of the instruction set and proof layout.
// Proofs are only valid for the version they were generated with.
const CurrentVersion uint32 = 1

// Claim contains the public information of a verifiably correct computation.
// A corresponding Proof is needed to verify the computation.
type Claim struct {
	// ProgramDigest is the hash digest of the guest binary that was executed
	ProgramDigest []field.Element

	// Version of the instruction set and proof system
	Version uint32

	// PublicOutput holds the u32 words the guest wrote to its output channel
	PublicOutput []field.Element
}

// NewClaim creates a new Claim with a program digest
func NewClaim(programDigest hash.Digest) *Claim {
	return &Claim{
		ProgramDigest: append([]field.Element(nil), programDigest[:]...),
		Version:       CurrentVersion,
		PublicOutput:  make([]field.Element, 0),
	}
}

// WithOutput sets the public output for the claim
func (c *Claim) WithOutput(output []field.Element) *Claim {
	c.PublicOutput = output
	return c
}

// Validate checks if the claim is well-formed
func (c *Claim) Validate() error {
	if len(c.ProgramDigest) != hash.DigestLen {
		return errors.Errorf("program digest must be exactly %d elements, got %d", hash.DigestLen, len(c.ProgramDigest))
	}
	for i, w := range c.PublicOutput {
		if w.Value() > 0xffffffff {
			return errors.Errorf("public output word %d exceeds u32", i)
		}
	}
	return nil
}

// Hash computes a digest of the claim for Fiat-Shamir
func (c *Claim) Hash() (hash.Digest, error) {
	var digest hash.Digest
	if err := c.Validate(); err != nil {
		return digest, errors.Wrap(err, "invalid claim")
	}

	elements := make([]field.Element, 0, len(c.ProgramDigest)+2+len(c.PublicOutput))
	elements = append(elements, c.ProgramDigest...)
	elements = append(elements, field.New(uint64(c.Version)))
	elements = append(elements, field.New(uint64(len(c.PublicOutput))))
	elements = append(elements, c.PublicOutput...)

	out := hash.HashVarlen(elements)
	for i := range digest {
		digest[i] = out[i]
	}
	return digest, nil
}
