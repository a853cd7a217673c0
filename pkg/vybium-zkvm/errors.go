package vybiumzkvm

import "fmt"

// ErrorCode represents a Vybium zkVM error code
type ErrorCode int

const (
	// ErrCodeUnknown represents an unknown error
	ErrCodeUnknown ErrorCode = iota

	// ErrCodeInvalidConfig represents an invalid configuration error
	ErrCodeInvalidConfig

	// ErrCodeInvalidBinary represents a guest binary that does not decode
	// into a valid program
	ErrCodeInvalidBinary

	// ErrCodeExecution represents a guest trap during execution
	ErrCodeExecution

	// ErrCodeProving represents a failure while generating a proof
	ErrCodeProving

	// ErrCodeMalformedProof represents a proof that cannot be parsed or has
	// the wrong shape
	ErrCodeMalformedProof

	// ErrCodeProgramMismatch represents a proof made for a different guest
	ErrCodeProgramMismatch

	// ErrCodeInvalidProof represents a failed cryptographic check
	ErrCodeInvalidProof

	// ErrCodeInsufficientSecurity represents a proof that samples fewer
	// transitions than the verifier requires
	ErrCodeInsufficientSecurity
)

var codeNames = map[ErrorCode]string{
	ErrCodeUnknown:              "unknown",
	ErrCodeInvalidConfig:        "invalid config",
	ErrCodeInvalidBinary:        "invalid binary",
	ErrCodeExecution:            "execution",
	ErrCodeProving:              "proving",
	ErrCodeMalformedProof:       "malformed proof",
	ErrCodeProgramMismatch:      "program mismatch",
	ErrCodeInvalidProof:         "invalid proof",
	ErrCodeInsufficientSecurity: "insufficient security",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// ProverError is returned by Setup, Execute and Prove
type ProverError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns the error message
func (e *ProverError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vybium-zkvm prover error [%s]: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("vybium-zkvm prover error [%s]: %s", e.Code, e.Message)
}

// Unwrap returns the cause of the error
func (e *ProverError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a ProverError with the same code
func (e *ProverError) Is(target error) bool {
	t, ok := target.(*ProverError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// VerifierError is returned by Verify
type VerifierError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error returns the error message
func (e *VerifierError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vybium-zkvm verifier error [%s]: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("vybium-zkvm verifier error [%s]: %s", e.Code, e.Message)
}

// Unwrap returns the cause of the error
func (e *VerifierError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a VerifierError with the same code
func (e *VerifierError) Is(target error) bool {
	t, ok := target.(*VerifierError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func proverError(code ErrorCode, message string, cause error) error {
	return &ProverError{Code: code, Message: message, Cause: cause}
}

func verifierError(code ErrorCode, message string, cause error) error {
	return &VerifierError{Code: code, Message: message, Cause: cause}
}
