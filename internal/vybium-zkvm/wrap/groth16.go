package wrap

import (
	"bytes"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/sha3"
)

// ErrInvalidProof is returned when a wrap proof does not verify
var ErrInvalidProof = errors.New("invalid groth16 proof")

// Keys holds the compiled circuit and its Groth16 keys
type Keys struct {
	CS constraint.ConstraintSystem
	PK groth16.ProvingKey
	VK groth16.VerifyingKey
}

// Compile compiles the wrap circuit to R1CS over BN254
func Compile() (constraint.ConstraintSystem, error) {
	var circuit Circuit
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, errors.Wrap(err, "compile wrap circuit")
	}
	return cs, nil
}

// Setup compiles the circuit and runs a local Groth16 setup.
// The keys are only as trustworthy as the machine that produced them.
func Setup() (*Keys, error) {
	cs, err := Compile()
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, errors.Wrap(err, "groth16 setup")
	}
	log.Debug().
		Int("constraints", cs.GetNbConstraints()).
		Msg("wrap circuit set up")
	return &Keys{CS: cs, PK: pk, VK: vk}, nil
}

// Prove produces a serialized Groth16 proof for the statement
func Prove(keys *Keys, st *Statement) ([]byte, error) {
	if keys == nil || st == nil {
		return nil, errors.New("keys and statement are required")
	}
	witness, err := frontend.NewWitness(st.assignment(), ecc.BN254.ScalarField())
	if err != nil {
		return nil, errors.Wrap(err, "build witness")
	}
	proof, err := groth16.Prove(keys.CS, keys.PK, witness,
		backend.WithProverHashToFieldFunction(sha3.NewLegacyKeccak256()))
	if err != nil {
		return nil, errors.Wrap(err, "groth16 prove")
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "serialize proof")
	}
	return buf.Bytes(), nil
}

// Verify checks a serialized Groth16 proof against the statement
func Verify(vk groth16.VerifyingKey, st *Statement, raw []byte) error {
	if vk == nil || st == nil {
		return errors.New("verifying key and statement are required")
	}
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(raw)); err != nil {
		return errors.Wrap(ErrInvalidProof, err.Error())
	}
	public, err := frontend.NewWitness(st.publicAssignment(), ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return errors.Wrap(err, "build public witness")
	}
	err = groth16.Verify(proof, vk, public,
		backend.WithVerifierHashToFieldFunction(sha3.NewLegacyKeccak256()))
	if err != nil {
		return errors.Wrap(ErrInvalidProof, err.Error())
	}
	return nil
}

// WriteVerifyingKey serializes vk to w
func WriteVerifyingKey(w io.Writer, vk groth16.VerifyingKey) error {
	_, err := vk.WriteTo(w)
	return errors.Wrap(err, "write verifying key")
}

// ReadVerifyingKey deserializes a BN254 verifying key from r
func ReadVerifyingKey(r io.Reader) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(r); err != nil {
		return nil, errors.Wrap(err, "read verifying key")
	}
	return vk, nil
}
