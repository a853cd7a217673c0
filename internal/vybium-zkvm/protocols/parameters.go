package protocols

import (
	"fmt"

	"github.com/pkg/errors"
)

// MinimumQueries is the smallest query count any parameter set may use
const MinimumQueries = 40

// maxQueries bounds the query count a proof may claim
const maxQueries = 1 << 12

// Parameters controls how many transitions a proof opens
type Parameters struct {
	// SecurityLevel is a nominal label that selects NumQueries. It is not a
	// soundness bound: a proof that forges k of T transitions escapes with
	// probability about (1-k/T)^NumQueries, so a single forged step in a
	// long trace is caught far less often than 2^-SecurityLevel suggests.
	SecurityLevel int

	// NumQueries is the number of sampled transitions. Traces with no more
	// transitions than this are opened in full.
	NumQueries int

	// MinQueries is the fewest sampled transitions a verifier accepts.
	// Proofs carry their own query count.
	MinQueries int
}

// DefaultParameters returns the default parameters
func DefaultParameters() Parameters {
	return NewParameters(128)
}

// NewParameters derives the query count from a security level
func NewParameters(securityLevel int) Parameters {
	numQueries := securityLevel / 2
	if numQueries < MinimumQueries {
		numQueries = MinimumQueries
	}
	return Parameters{
		SecurityLevel: securityLevel,
		NumQueries:    numQueries,
		MinQueries:    MinimumQueries,
	}
}

// Validate checks if the parameters are valid
func (p Parameters) Validate() error {
	if p.SecurityLevel < 80 {
		return errors.Errorf("security level must be at least 80 bits, got %d", p.SecurityLevel)
	}
	if p.NumQueries < p.SecurityLevel/3 {
		return errors.Errorf("%d queries are too few for %d-bit security", p.NumQueries, p.SecurityLevel)
	}
	if p.NumQueries > maxQueries {
		return errors.Errorf("%d queries exceed the limit of %d", p.NumQueries, maxQueries)
	}
	if p.MinQueries < MinimumQueries || p.MinQueries > p.NumQueries {
		return errors.Errorf("minimum query count %d must be in [%d, %d]", p.MinQueries, MinimumQueries, p.NumQueries)
	}
	return nil
}

// accepts reports whether a proof sampling numQueries of transitions
// transitions meets the minimum. Fully opened traces always do.
func (p Parameters) accepts(numQueries, transitions int) bool {
	return numQueries >= p.MinQueries || numQueries >= transitions
}

func (p Parameters) String() string {
	return fmt.Sprintf("Params{Security: %d bits, Queries: %d, MinQueries: %d}",
		p.SecurityLevel, p.NumQueries, p.MinQueries)
}
