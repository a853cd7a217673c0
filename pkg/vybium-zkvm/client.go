package vybiumzkvm

import (
	"encoding/hex"
	"io"
	"sync"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/protocols"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/vm"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/wrap"
)

// ProvingKey holds what Prove needs for one guest
type ProvingKey struct {
	binary *GuestBinary
	vk     *VerifyingKey
}

// VerifyingKey identifies a guest to the verifier
type VerifyingKey struct {
	hash [32]byte
}

// VerifyingKey returns the matching verifying key
func (pk *ProvingKey) VerifyingKey() *VerifyingKey {
	return pk.vk
}

// Hash returns the 32-byte vkey hash
func (vk *VerifyingKey) Hash() [32]byte {
	return vk.hash
}

// String returns the vkey hash in hex
func (vk *VerifyingKey) String() string {
	return "0x" + hex.EncodeToString(vk.hash[:])
}

// ExecutionReport summarizes an execution without proof
type ExecutionReport struct {
	// Cycles executed, including the final halt
	Cycles uint64

	// UnreadInput counts input field elements the guest never consumed
	UnreadInput int
}

// ProverClient executes, proves and verifies guest programs.
// It is safe for concurrent use. A client that imported a Groth16
// verifying key only verifies Groth16 proofs; it cannot make them.
type ProverClient struct {
	cfg *Config

	wrapOnce sync.Once
	wrapKeys *wrap.Keys
	wrapErr  error

	mu     sync.RWMutex
	logger zerolog.Logger
	wrapVK groth16.VerifyingKey
}

// NewProverClient creates a client with the given configuration.
// A nil config uses DefaultConfig.
func NewProverClient(cfg *Config) (*ProverClient, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ProverClient{
		cfg:    cfg.Clone(),
		logger: log.Logger,
	}, nil
}

// WithLogger replaces the client's logger
func (c *ProverClient) WithLogger(logger zerolog.Logger) *ProverClient {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
	return c
}

func (c *ProverClient) currentLogger() *zerolog.Logger {
	c.mu.RLock()
	logger := c.logger
	c.mu.RUnlock()
	return &logger
}

// Config returns a copy of the client configuration
func (c *ProverClient) Config() *Config {
	return c.cfg.Clone()
}

// Setup derives the proving and verifying keys of a guest
func (c *ProverClient) Setup(bin *GuestBinary) (*ProvingKey, *VerifyingKey, error) {
	if bin == nil || bin.program == nil {
		return nil, nil, proverError(ErrCodeInvalidBinary, "guest binary is required", nil)
	}
	vk := &VerifyingKey{hash: bin.VkeyHash()}
	return &ProvingKey{binary: bin, vk: vk}, vk, nil
}

// Execute runs the guest on stdin without proving
func (c *ProverClient) Execute(bin *GuestBinary, stdin *Stdin) (*PublicValues, *ExecutionReport, error) {
	pk, _, err := c.Setup(bin)
	if err != nil {
		return nil, nil, err
	}
	if stdin == nil {
		stdin = NewStdin()
	}

	stream := vm.NewStreamIO(stdin.elements(), c.cfg.Debug)
	state := vm.NewVMState(pk.binary.program, stream)
	if err := state.Run(c.cfg.MaxCycles); err != nil {
		return nil, nil, proverError(ErrCodeExecution, "guest execution failed", err)
	}

	report := &ExecutionReport{
		Cycles:      state.CycleCount,
		UnreadInput: stream.Remaining(),
	}
	c.currentLogger().Debug().
		Str("guest", bin.Name()).
		Uint64("cycles", report.Cycles).
		Msg("guest executed")
	return publicValuesFromElements(stream.Output()), report, nil
}

// Prove executes the guest on stdin and proves the execution
func (c *ProverClient) Prove(bin *GuestBinary, stdin *Stdin) (*Proof, error) {
	pk, _, err := c.Setup(bin)
	if err != nil {
		return nil, err
	}
	return c.ProveWithKey(pk, stdin)
}

// ProveWithKey proves an execution of the guest behind pk
func (c *ProverClient) ProveWithKey(pk *ProvingKey, stdin *Stdin) (*Proof, error) {
	if pk == nil {
		return nil, proverError(ErrCodeInvalidBinary, "proving key is required", nil)
	}
	if stdin == nil {
		stdin = NewStdin()
	}

	stream := vm.NewStreamIO(stdin.elements(), c.cfg.Debug)
	trace, err := vm.NewVMState(pk.binary.program, stream).ExecuteAndTrace(c.cfg.MaxCycles)
	if err != nil {
		return nil, proverError(ErrCodeExecution, "guest execution failed", err)
	}

	claim := protocols.NewClaim(vm.ProgramDigest(pk.binary.raw)).WithOutput(stream.Output())
	prover, err := protocols.NewProver(c.cfg.parameters())
	if err != nil {
		return nil, proverError(ErrCodeInvalidConfig, "invalid proof parameters", err)
	}
	core, err := prover.WithLogger(*c.currentLogger()).Prove(claim, pk.binary.program, trace)
	if err != nil {
		return nil, proverError(ErrCodeProving, "trace proof failed", err)
	}

	proof := &Proof{
		Mode:         c.cfg.ProofMode,
		VkeyHash:     pk.vk.hash,
		PublicValues: publicValuesFromElements(stream.Output()).Bytes(),
		Core:         core,
		SDKVersion:   Version,
	}

	if c.cfg.ProofMode == ProofModeGroth16 {
		if c.importedGroth16Key() {
			return nil, proverError(ErrCodeInvalidConfig, "client holds an imported groth16 verifying key and cannot prove", nil)
		}
		keys, err := c.groth16Keys()
		if err != nil {
			return nil, proverError(ErrCodeProving, "groth16 setup failed", err)
		}
		st, err := statement(proof)
		if err != nil {
			return nil, proverError(ErrCodeProving, "build wrap statement", err)
		}
		if proof.Groth16, err = wrap.Prove(keys, st); err != nil {
			return nil, proverError(ErrCodeProving, "groth16 wrap failed", err)
		}
	}

	c.currentLogger().Debug().
		Str("guest", pk.binary.Name()).
		Str("mode", string(proof.Mode)).
		Uint64("cycles", trace.Cycles).
		Int("height", core.PaddedHeight()).
		Msg("proof generated")
	return proof, nil
}

// Verify checks proof against the guest binary.
// It returns nil or a *VerifierError.
func (c *ProverClient) Verify(bin *GuestBinary, proof *Proof) error {
	_, vk, err := c.Setup(bin)
	if err != nil {
		return verifierError(ErrCodeInvalidBinary, "invalid guest binary", err)
	}
	return c.VerifyWithKey(vk, bin, proof)
}

// VerifyWithKey checks proof against a guest and its verifying key
func (c *ProverClient) VerifyWithKey(vk *VerifyingKey, bin *GuestBinary, proof *Proof) error {
	if proof == nil || proof.Core == nil {
		return verifierError(ErrCodeMalformedProof, "proof has no core proof", nil)
	}
	if vk == nil || bin == nil {
		return verifierError(ErrCodeInvalidBinary, "verifying key and guest binary are required", nil)
	}
	if proof.VkeyHash != vk.hash || bin.VkeyHash() != vk.hash {
		return verifierError(ErrCodeProgramMismatch, "proof was made for a different guest", nil)
	}

	values, err := proof.Values()
	if err != nil {
		return verifierError(ErrCodeMalformedProof, "malformed public values", err)
	}

	switch proof.Mode {
	case ProofModeCore:
		if len(proof.Groth16) != 0 {
			return verifierError(ErrCodeMalformedProof, "core proof carries a groth16 proof", nil)
		}
	case ProofModeGroth16:
		if len(proof.Groth16) == 0 {
			return verifierError(ErrCodeMalformedProof, "groth16 proof is missing", nil)
		}
	default:
		return verifierError(ErrCodeMalformedProof, "unknown proof mode "+string(proof.Mode), nil)
	}

	claim := protocols.NewClaim(vm.ProgramDigest(bin.raw)).WithOutput(values.elements())
	verifier, err := protocols.NewVerifier(c.cfg.parameters())
	if err != nil {
		return verifierError(ErrCodeInvalidConfig, "invalid proof parameters", err)
	}
	if err := verifier.WithLogger(*c.currentLogger()).Verify(claim, bin.raw, proof.Core); err != nil {
		return verifierError(coreErrorCode(err), "trace proof rejected", err)
	}

	if proof.Mode == ProofModeGroth16 {
		wrapVK, err := c.groth16VerifyingKey()
		if err != nil {
			return verifierError(ErrCodeInvalidConfig, "groth16 verifying key unavailable", err)
		}
		st, err := statement(proof)
		if err != nil {
			return verifierError(ErrCodeMalformedProof, "build wrap statement", err)
		}
		if err := wrap.Verify(wrapVK, st, proof.Groth16); err != nil {
			return verifierError(ErrCodeInvalidProof, "groth16 proof rejected", err)
		}
	}

	c.currentLogger().Debug().
		Str("guest", bin.Name()).
		Str("mode", string(proof.Mode)).
		Msg("proof verified")
	return nil
}

// ExportGroth16VerifyingKey writes the wrap verifying key, running the
// Groth16 setup first if needed
func (c *ProverClient) ExportGroth16VerifyingKey(w io.Writer) error {
	vk, err := c.groth16VerifyingKey()
	if err != nil {
		return err
	}
	return wrap.WriteVerifyingKey(w, vk)
}

// ImportGroth16VerifyingKey makes the client verify groth16 proofs with a
// previously exported key. After an import the client refuses to make
// groth16 proofs, since its own setup would not match the key.
func (c *ProverClient) ImportGroth16VerifyingKey(r io.Reader) error {
	vk, err := wrap.ReadVerifyingKey(r)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.wrapVK = vk
	c.mu.Unlock()
	return nil
}

func (c *ProverClient) groth16Keys() (*wrap.Keys, error) {
	c.wrapOnce.Do(func() {
		c.currentLogger().Info().Msg("running groth16 setup for the wrap circuit")
		c.wrapKeys, c.wrapErr = wrap.Setup()
	})
	return c.wrapKeys, c.wrapErr
}

func (c *ProverClient) importedGroth16Key() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wrapVK != nil
}

func (c *ProverClient) groth16VerifyingKey() (groth16.VerifyingKey, error) {
	c.mu.RLock()
	vk := c.wrapVK
	c.mu.RUnlock()
	if vk != nil {
		return vk, nil
	}
	keys, err := c.groth16Keys()
	if err != nil {
		return nil, err
	}
	return keys.VK, nil
}

func statement(proof *Proof) (*wrap.Statement, error) {
	root, err := proof.Core.Root()
	if err != nil {
		return nil, err
	}
	return &wrap.Statement{
		VkeyHash:     proof.VkeyHash,
		PublicValues: proof.PublicValues,
		TraceRoot:    root,
	}, nil
}

func coreErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, protocols.ErrMalformedProof):
		return ErrCodeMalformedProof
	case errors.Is(err, protocols.ErrProgramMismatch):
		return ErrCodeProgramMismatch
	case errors.Is(err, protocols.ErrInvalidProgram):
		return ErrCodeInvalidBinary
	case errors.Is(err, protocols.ErrInsufficientSecurity):
		return ErrCodeInsufficientSecurity
	default:
		return ErrCodeInvalidProof
	}
}
