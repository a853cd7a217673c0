package vybiumzkvm

import (
	"crypto/sha256"
	"os"

	"github.com/pkg/errors"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/vm"
)

// GuestBinary is an assembled guest program in its serialized form.
// The bytes are what proofs bind to.
type GuestBinary struct {
	raw     []byte
	name    string
	program *vm.Program
}

// NewGuestBinary parses and validates a serialized guest program
func NewGuestBinary(raw []byte) (*GuestBinary, error) {
	bin, err := vm.DecodeBinary(raw)
	if err != nil {
		return nil, proverError(ErrCodeInvalidBinary, "cannot decode guest binary", err)
	}
	program, err := bin.Program()
	if err != nil {
		return nil, proverError(ErrCodeInvalidBinary, "guest binary is not a valid program", err)
	}
	return &GuestBinary{
		raw:     append([]byte(nil), raw...),
		name:    bin.Name,
		program: program,
	}, nil
}

// ReadGuestBinary loads a guest binary from a file
func ReadGuestBinary(path string) (*GuestBinary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read guest binary %s", path)
	}
	return NewGuestBinary(raw)
}

// Save writes the binary to path
func (g *GuestBinary) Save(path string) error {
	return errors.Wrapf(os.WriteFile(path, g.raw, 0o644), "write guest binary %s", path)
}

// Name returns the program name
func (g *GuestBinary) Name() string {
	return g.name
}

// Bytes returns a copy of the serialized binary
func (g *GuestBinary) Bytes() []byte {
	return append([]byte(nil), g.raw...)
}

// VkeyHash returns the SHA-256 hash identifying this guest
func (g *GuestBinary) VkeyHash() [32]byte {
	return sha256.Sum256(g.raw)
}
