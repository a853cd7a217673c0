package vybiumzkvm

import (
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/protocols"
	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/vm"
)

// Environment variables read by ConfigFromEnv and SetupLogger
const (
	EnvLogLevel  = "VYBIUM_ZKVM_LOG"
	EnvProofMode = "VYBIUM_ZKVM_PROOF_MODE"
	EnvMaxCycles = "VYBIUM_ZKVM_MAX_CYCLES"
)

// ProofMode selects the kind of proof Prove produces
type ProofMode string

const (
	// ProofModeCore produces the trace commitment proof only
	ProofModeCore ProofMode = "core"

	// ProofModeGroth16 additionally wraps the core proof in a Groth16 proof
	ProofModeGroth16 ProofMode = "groth16"
)

// ParseProofMode parses a proof mode name
func ParseProofMode(s string) (ProofMode, error) {
	switch ProofMode(s) {
	case ProofModeCore, ProofModeGroth16:
		return ProofMode(s), nil
	default:
		return "", errors.Errorf("unknown proof mode %q (want %q or %q)", s, ProofModeCore, ProofModeGroth16)
	}
}

// Config represents configuration for the prover client
type Config struct {
	// ProofMode selects core or groth16 proofs
	ProofMode ProofMode

	// MaxCycles bounds guest execution
	MaxCycles uint64

	// SecurityLevel selects NumQueries. It is a nominal label, not a
	// soundness bound.
	SecurityLevel int

	// Number of sampled trace transitions in proofs this client makes
	NumQueries int

	// Fewest sampled transitions Verify accepts. Proofs record their own
	// query count, so prover and verifier settings may differ.
	MinQueries int

	// Debug receives guest debug lines. Nil discards them.
	Debug io.Writer
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	params := protocols.DefaultParameters()
	return &Config{
		ProofMode:     ProofModeCore,
		MaxCycles:     vm.DefaultMaxCycles,
		SecurityLevel: params.SecurityLevel,
		NumQueries:    params.NumQueries,
		MinQueries:    params.MinQueries,
		Debug:         os.Stdout,
	}
}

// ConfigFromEnv returns the default configuration with environment
// overrides applied
func ConfigFromEnv() (*Config, error) {
	cfg := DefaultConfig()
	if s := os.Getenv(EnvProofMode); s != "" {
		mode, err := ParseProofMode(s)
		if err != nil {
			return nil, &ProverError{Code: ErrCodeInvalidConfig, Message: EnvProofMode, Cause: err}
		}
		cfg.ProofMode = mode
	}
	if s := os.Getenv(EnvMaxCycles); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, &ProverError{Code: ErrCodeInvalidConfig, Message: EnvMaxCycles, Cause: err}
		}
		cfg.MaxCycles = n
	}
	return cfg, cfg.Validate()
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := ParseProofMode(string(c.ProofMode)); err != nil {
		return &ProverError{Code: ErrCodeInvalidConfig, Message: "invalid proof mode", Cause: err}
	}
	if c.MaxCycles == 0 {
		return &ProverError{Code: ErrCodeInvalidConfig, Message: "max cycles must be positive"}
	}
	if err := c.parameters().Validate(); err != nil {
		return &ProverError{Code: ErrCodeInvalidConfig, Message: "invalid proof parameters", Cause: err}
	}
	return nil
}

// WithProofMode sets the proof mode
func (c *Config) WithProofMode(mode ProofMode) *Config {
	c.ProofMode = mode
	return c
}

// WithMaxCycles sets the execution cycle bound
func (c *Config) WithMaxCycles(n uint64) *Config {
	c.MaxCycles = n
	return c
}

// WithSecurityLevel sets the security level and its matching query count
func (c *Config) WithSecurityLevel(bits int) *Config {
	params := protocols.NewParameters(bits)
	c.SecurityLevel = params.SecurityLevel
	c.NumQueries = params.NumQueries
	return c
}

// WithNumQueries overrides the query count
func (c *Config) WithNumQueries(n int) *Config {
	c.NumQueries = n
	return c
}

// WithMinQueries sets the fewest sampled transitions Verify accepts
func (c *Config) WithMinQueries(n int) *Config {
	c.MinQueries = n
	return c
}

// WithDebug sets the writer for guest debug lines
func (c *Config) WithDebug(w io.Writer) *Config {
	c.Debug = w
	return c
}

// Clone returns a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

func (c *Config) parameters() protocols.Parameters {
	return protocols.Parameters{
		SecurityLevel: c.SecurityLevel,
		NumQueries:    c.NumQueries,
		MinQueries:    c.MinQueries,
	}
}
