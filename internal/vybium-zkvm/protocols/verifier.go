package protocols

import (
	"runtime"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
	"golang.org/x/sync/errgroup"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/vm"
)

// Verification failure classes. Every error returned by Verify wraps one.
var (
	ErrMalformedProof  = errors.New("malformed proof")
	ErrProgramMismatch = errors.New("program mismatch")
	ErrInvalidProgram  = errors.New("invalid program")
	ErrInvalidProof    = errors.New("invalid proof")

	// ErrInsufficientSecurity means the proof samples fewer transitions
	// than the verifier's minimum
	ErrInsufficientSecurity = errors.New("insufficient security")
)

// Verifier checks trace proofs
//
// Verification steps:
// 1. Check the claim and proof shapes
// 2. Bind the claim to the guest binary's digest
// 3. Check the proof's query count and re-derive the opened rows
// 4. Check every authentication path against the trace root
// 5. Check the boundary rows
// 6. Replay every sampled transition against the program
type Verifier struct {
	params Parameters
	logger zerolog.Logger
}

// NewVerifier creates a new verifier with given parameters
func NewVerifier(params Parameters) (*Verifier, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid proof parameters")
	}
	return &Verifier{
		params: params,
		logger: log.Logger,
	}, nil
}

// WithLogger replaces the verifier's logger
func (v *Verifier) WithLogger(logger zerolog.Logger) *Verifier {
	v.logger = logger
	return v
}

// Verify checks proof against claim for the guest binary guest.
// Returns nil if the proof is valid.
func (v *Verifier) Verify(claim *Claim, guest []byte, proof *Proof) error {
	if claim == nil || proof == nil {
		return errors.Wrap(ErrMalformedProof, "claim and proof are required")
	}
	claimHash, err := claim.Hash()
	if err != nil {
		return errors.Wrap(ErrMalformedProof, err.Error())
	}
	if claim.Version != CurrentVersion {
		return errors.Wrapf(ErrMalformedProof, "claim version %d, want %d", claim.Version, CurrentVersion)
	}
	if err := proof.Validate(); err != nil {
		return errors.Wrap(ErrMalformedProof, err.Error())
	}

	// Step 2: the claim must name this exact binary
	digest := vm.ProgramDigest(guest)
	for i := range digest {
		if !digest[i].Equal(claim.ProgramDigest[i]) {
			return errors.Wrap(ErrProgramMismatch, "claim was made for a different guest binary")
		}
	}
	bin, err := vm.DecodeBinary(guest)
	if err != nil {
		return errors.Wrap(ErrInvalidProgram, err.Error())
	}
	program, err := bin.Program()
	if err != nil {
		return errors.Wrap(ErrInvalidProgram, err.Error())
	}

	// Step 3: the openings must be exactly the rows the transcript selects
	root, err := proof.Root()
	if err != nil {
		return errors.Wrap(ErrMalformedProof, err.Error())
	}
	numQueries := int(proof.NumQueries)
	if !v.params.accepts(numQueries, proof.PaddedHeight()-1) {
		return errors.Wrapf(ErrInsufficientSecurity, "proof samples %d transitions, verifier requires %d", numQueries, v.params.MinQueries)
	}
	transitions := sampleTransitions(claimHash, root, proof.Log2PaddedHeight, numQueries)
	expected := openedRows(proof.PaddedHeight(), transitions)
	if len(proof.Openings) != len(expected) {
		return errors.Wrapf(ErrMalformedProof, "proof opens %d rows, transcript selects %d", len(proof.Openings), len(expected))
	}

	rows := make(map[int]vm.Row, len(expected))
	for i, want := range expected {
		opening := proof.Openings[i]
		if int(opening.Index) != want {
			return errors.Wrapf(ErrMalformedProof, "opening %d is row %d, transcript selects row %d", i, opening.Index, want)
		}
		elems, err := wordsToElements(opening.Row)
		if err != nil {
			return errors.Wrap(ErrMalformedProof, err.Error())
		}
		row, err := vm.RowFromElements(elems)
		if err != nil {
			return errors.Wrapf(ErrInvalidProof, "row %d: %v", want, err)
		}
		rows[want] = row
	}

	workers := runtime.GOMAXPROCS(0)

	// Step 4: authentication paths
	var paths errgroup.Group
	paths.SetLimit(workers)
	for i := range proof.Openings {
		opening := proof.Openings[i]
		paths.Go(func() error {
			elems, _ := wordsToElements(opening.Row)
			path := make([]hash.Digest, len(opening.Path))
			for j, node := range opening.Path {
				path[j], _ = wordsToDigest(node)
			}
			if !VerifyAuthPath(root, HashRow(elems), int(opening.Index), path) {
				return errors.Wrapf(ErrInvalidProof, "row %d is not in the trace commitment", opening.Index)
			}
			return nil
		})
	}
	if err := paths.Wait(); err != nil {
		return err
	}

	// Step 5: boundaries
	if err := vm.CheckInitial(rows[0]); err != nil {
		return errors.Wrap(ErrInvalidProof, err.Error())
	}
	if err := vm.CheckFinal(program, rows[proof.PaddedHeight()-1], len(claim.PublicOutput)); err != nil {
		return errors.Wrap(ErrInvalidProof, err.Error())
	}

	// Step 6: transitions
	var steps errgroup.Group
	steps.SetLimit(workers)
	for _, i := range transitions {
		cur, next := rows[i], rows[i+1]
		steps.Go(func() error {
			if err := vm.CheckTransition(program, cur, next, claim.PublicOutput); err != nil {
				return errors.Wrap(ErrInvalidProof, err.Error())
			}
			return nil
		})
	}
	if err := steps.Wait(); err != nil {
		return err
	}

	v.logger.Debug().
		Int("height", proof.PaddedHeight()).
		Int("queries", len(transitions)).
		Msg("trace proof verified")

	return nil
}
