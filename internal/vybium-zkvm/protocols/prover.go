package protocols

import (
	"math/bits"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/vm"
)

// Prover commits to an execution trace and opens it where the
// Fiat-Shamir transcript asks
//
// Workflow:
// 1. Pad the trace to a power-of-two height
// 2. Hash rows into leaves and build the Merkle tree
// 3. Seed the transcript with the claim hash and trace root
// 4. Sample transitions and open both rows of each, plus the boundaries
type Prover struct {
	params Parameters
	logger zerolog.Logger
}

// NewProver creates a new prover with the given parameters
func NewProver(params Parameters) (*Prover, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid proof parameters")
	}
	return &Prover{
		params: params,
		logger: log.Logger,
	}, nil
}

// WithLogger replaces the prover's logger
func (p *Prover) WithLogger(logger zerolog.Logger) *Prover {
	p.logger = logger
	return p
}

// Prove generates a proof that trace is an execution producing the claim
func (p *Prover) Prove(claim *Claim, program *vm.Program, trace *vm.Trace) (*Proof, error) {
	if claim == nil {
		return nil, errors.New("claim cannot be nil")
	}
	if trace == nil || trace.Height() == 0 {
		return nil, errors.New("trace cannot be empty")
	}
	claimHash, err := claim.Hash()
	if err != nil {
		return nil, err
	}

	// The trace must end in the claimed state.
	last := trace.Rows[trace.Height()-1]
	if err := vm.CheckFinal(program, last, len(claim.PublicOutput)); err != nil {
		return nil, errors.Wrap(err, "trace does not match claim")
	}

	rows := trace.Padded()
	log2Height := uint32(bits.TrailingZeros(uint(len(rows))))

	leaves, err := HashRows(rows)
	if err != nil {
		return nil, errors.Wrap(err, "hash trace rows")
	}
	tree, err := NewMerkleTree(leaves)
	if err != nil {
		return nil, errors.Wrap(err, "commit to trace")
	}
	root := tree.Root()

	transitions := sampleTransitions(claimHash, root, log2Height, p.params.NumQueries)
	indices := openedRows(len(rows), transitions)

	proof := &Proof{
		Version:          CurrentVersion,
		Log2PaddedHeight: log2Height,
		TraceRoot:        digestToWords(root),
		Openings:         make([]RowOpening, 0, len(indices)),
		NumQueries:       uint32(p.params.NumQueries),
	}
	for _, i := range indices {
		path, err := tree.AuthPath(i)
		if err != nil {
			return nil, errors.Wrapf(err, "open row %d", i)
		}
		opening := RowOpening{
			Index: uint32(i),
			Row:   elementsToWords(rows[i].Elements()),
			Path:  make([][]uint64, len(path)),
		}
		for j, node := range path {
			opening.Path[j] = digestToWords(node)
		}
		proof.Openings = append(proof.Openings, opening)
	}

	p.logger.Debug().
		Uint64("cycles", trace.Cycles).
		Int("height", len(rows)).
		Int("queries", len(transitions)).
		Int("openings", len(proof.Openings)).
		Msg("trace proof generated")

	return proof, nil
}
