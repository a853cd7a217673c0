// Package wrap compresses a trace proof into a constant-size Groth16 proof
// over BN254.
//
// The circuit binds three public inputs: the guest's verifying key hash,
// the digest of its committed public values, and a MiMC binding over both
// plus the trace commitment root. The root itself stays a private witness.
package wrap

import (
	"crypto/sha256"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	nativemimc "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

// Circuit is the wrap circuit. Field order is the public witness order.
type Circuit struct {
	VkeyHash              frontend.Variable `gnark:",public"`
	CommittedValuesDigest frontend.Variable `gnark:",public"`
	Binding               frontend.Variable `gnark:",public"`

	TraceRoot [hash.DigestLen]frontend.Variable
}

// Define declares the circuit constraints
func (c *Circuit) Define(api frontend.API) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(c.VkeyHash, c.CommittedValuesDigest)
	for i := range c.TraceRoot {
		// root limbs are Goldilocks elements
		api.ToBinary(c.TraceRoot[i], 64)
		h.Write(c.TraceRoot[i])
	}
	api.AssertIsEqual(h.Sum(), c.Binding)
	return nil
}

// Statement is everything a wrap proof speaks about
type Statement struct {
	// VkeyHash is the SHA-256 hash of the guest binary
	VkeyHash [32]byte
	// PublicValues are the bytes the guest committed
	PublicValues []byte
	// TraceRoot is the trace commitment of the core proof
	TraceRoot hash.Digest
}

// HashPublicValues returns the SHA-256 of public values with the top three
// bits cleared so it fits the BN254 scalar field
func HashPublicValues(publicValues []byte) [32]byte {
	digest := sha256.Sum256(publicValues)
	digest[0] &= 0x1f
	return digest
}

func toScalar(b [32]byte) fr.Element {
	b[0] &= 0x1f
	var e fr.Element
	e.SetBytes(b[:])
	return e
}

// publicScalars returns the three public inputs as field elements
func (s *Statement) publicScalars() (vkey, committed, binding fr.Element) {
	vkey = toScalar(s.VkeyHash)
	committed = toScalar(HashPublicValues(s.PublicValues))

	h := nativemimc.NewMiMC()
	for _, e := range []fr.Element{vkey, committed} {
		b := e.Bytes()
		h.Write(b[:])
	}
	for _, limb := range s.TraceRoot {
		var e fr.Element
		e.SetUint64(limb.Value())
		b := e.Bytes()
		h.Write(b[:])
	}
	binding.SetBytes(h.Sum(nil))
	return vkey, committed, binding
}

// Binding returns the MiMC binding of the statement
func (s *Statement) Binding() *big.Int {
	_, _, binding := s.publicScalars()
	return binding.BigInt(new(big.Int))
}

// assignment returns a full witness assignment for the statement
func (s *Statement) assignment() *Circuit {
	vkey, committed, binding := s.publicScalars()
	c := &Circuit{
		VkeyHash:              vkey.BigInt(new(big.Int)),
		CommittedValuesDigest: committed.BigInt(new(big.Int)),
		Binding:               binding.BigInt(new(big.Int)),
	}
	for i, limb := range s.TraceRoot {
		c.TraceRoot[i] = new(big.Int).SetUint64(limb.Value())
	}
	return c
}

// publicAssignment returns an assignment carrying only public inputs
func (s *Statement) publicAssignment() *Circuit {
	c := s.assignment()
	for i := range c.TraceRoot {
		c.TraceRoot[i] = 0
	}
	return c
}
