package vybiumzkvm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProverError(t *testing.T) {
	cause := errors.New("boom")
	err := proverError(ErrCodeExecution, "guest execution failed", cause)

	require.Contains(t, err.Error(), "execution")
	require.Contains(t, err.Error(), "boom")
	require.ErrorIs(t, err, cause)
	require.True(t, errors.Is(err, &ProverError{Code: ErrCodeExecution}))
	require.False(t, errors.Is(err, &ProverError{Code: ErrCodeProving}))
	require.False(t, errors.Is(err, &VerifierError{Code: ErrCodeExecution}))
}

func TestVerifierError(t *testing.T) {
	err := verifierError(ErrCodeProgramMismatch, "different guest", nil)

	require.Equal(t, "vybium-zkvm verifier error [program mismatch]: different guest", err.Error())
	require.Nil(t, errors.Unwrap(err))
	require.True(t, errors.Is(err, &VerifierError{Code: ErrCodeProgramMismatch}))
	require.Equal(t, "ErrorCode(99)", ErrorCode(99).String())
}
