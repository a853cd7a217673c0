package vybiumzkvm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, ProofModeCore, cfg.ProofMode)
	require.Equal(t, 128, cfg.SecurityLevel)
	require.Equal(t, 64, cfg.NumQueries)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"unknown mode", DefaultConfig().WithProofMode("plonk")},
		{"zero cycles", DefaultConfig().WithMaxCycles(0)},
		{"weak security", DefaultConfig().WithSecurityLevel(40)},
		{"too few queries", DefaultConfig().WithNumQueries(3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			require.True(t, errors.Is(err, &ProverError{Code: ErrCodeInvalidConfig}), "got %v", err)

			_, err = NewProverClient(tc.cfg)
			require.Error(t, err)
		})
	}
}

func TestConfigClone(t *testing.T) {
	var debug bytes.Buffer
	cfg := DefaultConfig().WithDebug(&debug).WithSecurityLevel(100)
	clone := cfg.Clone().WithProofMode(ProofModeGroth16)

	require.Equal(t, ProofModeCore, cfg.ProofMode)
	require.Equal(t, ProofModeGroth16, clone.ProofMode)
	require.Equal(t, 100, clone.SecurityLevel)
	require.Equal(t, 50, clone.NumQueries)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvProofMode, "groth16")
	t.Setenv(EnvMaxCycles, "500")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, ProofModeGroth16, cfg.ProofMode)
	require.Equal(t, uint64(500), cfg.MaxCycles)

	t.Setenv(EnvMaxCycles, "lots")
	_, err = ConfigFromEnv()
	require.True(t, errors.Is(err, &ProverError{Code: ErrCodeInvalidConfig}))

	t.Setenv(EnvMaxCycles, "")
	t.Setenv(EnvProofMode, "stark")
	_, err = ConfigFromEnv()
	require.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	logger := SetupLogger()
	require.Equal(t, "debug", logger.GetLevel().String())

	t.Setenv(EnvLogLevel, "nonsense")
	logger = SetupLogger()
	require.Equal(t, "info", logger.GetLevel().String())
}
