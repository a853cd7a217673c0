package protocols

import (
	"errors"
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/vm"
)

func mustInst(t *testing.T, inst vm.Instruction, arg ...uint64) *vm.EncodedInstruction {
	t.Helper()
	var a *field.Element
	if len(arg) > 0 {
		v := field.New(arg[0])
		a = &v
	}
	ei, err := vm.NewEncodedInstruction(inst, a)
	if err != nil {
		t.Fatalf("NewEncodedInstruction(%s): %v", inst, err)
	}
	return ei
}

// addGuest is read, read, add mod 2^32, write, halt
func addGuest(t *testing.T) []byte {
	t.Helper()
	program := vm.NewProgram()
	program.AddInstruction(mustInst(t, vm.ReadIo, 1))
	program.AddInstruction(mustInst(t, vm.ReadIo, 1))
	program.AddInstruction(mustInst(t, vm.Add))
	program.AddInstruction(mustInst(t, vm.Split))
	program.AddInstruction(mustInst(t, vm.Swap, 1))
	program.AddInstruction(mustInst(t, vm.Pop, 1))
	program.AddInstruction(mustInst(t, vm.WriteIo, 1))
	program.AddInstruction(mustInst(t, vm.Halt))
	return encode(t, "add", program)
}

// nopGuest runs n nops before halting
func nopGuest(t *testing.T, n int) []byte {
	t.Helper()
	program := vm.NewProgram()
	for i := 0; i < n; i++ {
		program.AddInstruction(mustInst(t, vm.Nop))
	}
	program.AddInstruction(mustInst(t, vm.Halt))
	return encode(t, "nop", program)
}

func encode(t *testing.T, name string, program *vm.Program) []byte {
	t.Helper()
	raw, err := vm.NewBinary(name, program).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return raw
}

// proveGuest executes guest on input and returns the claim and proof
func proveGuest(t *testing.T, guest []byte, input ...uint64) (*Claim, *Proof) {
	t.Helper()
	return proveGuestWith(t, DefaultParameters(), guest, input...)
}

func proveGuestWith(t *testing.T, params Parameters, guest []byte, input ...uint64) (*Claim, *Proof) {
	t.Helper()
	bin, err := vm.DecodeBinary(guest)
	if err != nil {
		t.Fatalf("DecodeBinary: %v", err)
	}
	program, err := bin.Program()
	if err != nil {
		t.Fatalf("Program: %v", err)
	}

	elems := make([]field.Element, len(input))
	for i, v := range input {
		elems[i] = field.New(v)
	}
	io := vm.NewStreamIO(elems, nil)
	trace, err := vm.NewVMState(program, io).ExecuteAndTrace(0)
	if err != nil {
		t.Fatalf("ExecuteAndTrace: %v", err)
	}

	claim := NewClaim(vm.ProgramDigest(guest)).WithOutput(io.Output())
	prover, err := NewProver(params)
	if err != nil {
		t.Fatalf("NewProver: %v", err)
	}
	proof, err := prover.Prove(claim, program, trace)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	return claim, proof
}

func newVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(DefaultParameters())
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v
}

func TestProveAndVerify(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want uint64
	}{
		{"42+27", 42, 27, 69},
		{"wrap", 0xffffffff, 1, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			guest := addGuest(t)
			claim, proof := proveGuest(t, guest, tc.a, tc.b)

			if len(claim.PublicOutput) != 1 || claim.PublicOutput[0].Value() != tc.want {
				t.Fatalf("public output = %v, want [%d]", claim.PublicOutput, tc.want)
			}
			if err := newVerifier(t).Verify(claim, guest, proof); err != nil {
				t.Fatalf("Verify failed: %v", err)
			}
			t.Logf("%s", proof)
		})
	}
}

func TestProveOpensEveryTransitionOfShortTraces(t *testing.T) {
	_, proof := proveGuest(t, addGuest(t), 1, 2)
	if len(proof.Openings) != proof.PaddedHeight() {
		t.Errorf("opened %d of %d rows", len(proof.Openings), proof.PaddedHeight())
	}
}

func TestProveSamplesLongTraces(t *testing.T) {
	guest := nopGuest(t, 300)
	claim, proof := proveGuest(t, guest)

	if len(proof.Openings) >= proof.PaddedHeight() {
		t.Errorf("expected sampling, opened %d of %d rows", len(proof.Openings), proof.PaddedHeight())
	}
	if err := newVerifier(t).Verify(claim, guest, proof); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
}

func TestProveRejectsMismatchedClaim(t *testing.T) {
	guest := addGuest(t)
	bin, _ := vm.DecodeBinary(guest)
	program, _ := bin.Program()

	io := vm.NewStreamIO([]field.Element{field.New(1), field.New(2)}, nil)
	trace, err := vm.NewVMState(program, io).ExecuteAndTrace(0)
	if err != nil {
		t.Fatalf("ExecuteAndTrace: %v", err)
	}

	claim := NewClaim(vm.ProgramDigest(guest)) // no output
	prover, _ := NewProver(DefaultParameters())
	if _, err := prover.Prove(claim, program, trace); err == nil {
		t.Error("expected an error for a claim without the written output")
	}
}

func TestVerifyRejectsDifferentBinary(t *testing.T) {
	claim, proof := proveGuest(t, addGuest(t), 42, 27)

	err := newVerifier(t).Verify(claim, nopGuest(t, 3), proof)
	if !errors.Is(err, ErrProgramMismatch) {
		t.Fatalf("expected program mismatch, got %v", err)
	}
}

func TestVerifyRejectsTamperedOutput(t *testing.T) {
	guest := addGuest(t)
	claim, proof := proveGuest(t, guest, 42, 27)

	forged := NewClaim(vm.ProgramDigest(guest)).WithOutput([]field.Element{field.New(70)})
	err := newVerifier(t).Verify(forged, guest, proof)
	if err == nil {
		t.Fatal("forged output verified")
	}

	longer := NewClaim(vm.ProgramDigest(guest)).WithOutput(append(claim.PublicOutput, field.New(0)))
	if err := newVerifier(t).Verify(longer, guest, proof); err == nil {
		t.Fatal("extra output word verified")
	}
}

func TestVerifyRejectsTamperedRow(t *testing.T) {
	guest := addGuest(t)
	claim, proof := proveGuest(t, guest, 42, 27)

	proof.Openings[3].Row[vm.ColStack0] ^= 1
	err := newVerifier(t).Verify(claim, guest, proof)
	if !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("expected invalid proof, got %v", err)
	}
}

func TestVerifyRejectsMalformedProof(t *testing.T) {
	guest := addGuest(t)
	claim, proof := proveGuest(t, guest, 42, 27)
	v := newVerifier(t)

	dropped := *proof
	dropped.Openings = proof.Openings[1:]
	if err := v.Verify(claim, guest, &dropped); !errors.Is(err, ErrMalformedProof) {
		t.Errorf("missing opening: got %v", err)
	}

	badRoot := *proof
	badRoot.TraceRoot = proof.TraceRoot[:2]
	if err := v.Verify(claim, guest, &badRoot); !errors.Is(err, ErrMalformedProof) {
		t.Errorf("short root: got %v", err)
	}

	badVersion := *proof
	badVersion.Version = CurrentVersion + 1
	if err := v.Verify(claim, guest, &badVersion); !errors.Is(err, ErrMalformedProof) {
		t.Errorf("version: got %v", err)
	}

	noQueries := *proof
	noQueries.NumQueries = 0
	if err := v.Verify(claim, guest, &noQueries); !errors.Is(err, ErrMalformedProof) {
		t.Errorf("zero queries: got %v", err)
	}

	if err := v.Verify(claim, guest, nil); !errors.Is(err, ErrMalformedProof) {
		t.Errorf("nil proof: got %v", err)
	}
}

func TestVerifyUsesProofQueryCount(t *testing.T) {
	guest := nopGuest(t, 300)
	claim, proof := proveGuestWith(t, NewParameters(80), guest)

	if proof.NumQueries != MinimumQueries {
		t.Fatalf("proof samples %d transitions, want %d", proof.NumQueries, MinimumQueries)
	}
	if err := newVerifier(t).Verify(claim, guest, proof); err != nil {
		t.Fatalf("default verifier rejected an 80-bit proof: %v", err)
	}

	// the query count is bound into the transcript
	inflated := *proof
	inflated.NumQueries = 64
	if err := newVerifier(t).Verify(claim, guest, &inflated); !errors.Is(err, ErrMalformedProof) {
		t.Errorf("inflated query count: got %v", err)
	}
}

func TestVerifyRejectsInsufficientQueries(t *testing.T) {
	strict, err := NewVerifier(Parameters{SecurityLevel: 128, NumQueries: 64, MinQueries: 64})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	guest := nopGuest(t, 300)
	claim, proof := proveGuestWith(t, NewParameters(80), guest)
	if err := strict.Verify(claim, guest, proof); !errors.Is(err, ErrInsufficientSecurity) {
		t.Fatalf("expected insufficient security, got %v", err)
	}

	// fully opened traces meet any minimum
	short := addGuest(t)
	claim, proof = proveGuestWith(t, NewParameters(80), short, 1, 2)
	if err := strict.Verify(claim, short, proof); err != nil {
		t.Fatalf("fully opened proof rejected: %v", err)
	}
}

func TestParameters(t *testing.T) {
	if err := DefaultParameters().Validate(); err != nil {
		t.Errorf("default parameters invalid: %v", err)
	}
	if err := NewParameters(40).Validate(); err == nil {
		t.Error("40-bit security should be rejected")
	}
	p := Parameters{SecurityLevel: 128, NumQueries: 2}
	if err := p.Validate(); err == nil {
		t.Error("2 queries should be rejected for 128-bit security")
	}
	if _, err := NewProver(p); err == nil {
		t.Error("NewProver should reject invalid parameters")
	}

	if got := NewParameters(80); got.NumQueries != MinimumQueries || got.MinQueries != MinimumQueries {
		t.Errorf("NewParameters(80) = %v", got)
	}
	strict := DefaultParameters()
	strict.MinQueries = strict.NumQueries + 1
	if err := strict.Validate(); err == nil {
		t.Error("a minimum above the query count should be rejected")
	}
	lax := DefaultParameters()
	lax.MinQueries = MinimumQueries - 1
	if err := lax.Validate(); err == nil {
		t.Errorf("a minimum below %d should be rejected", MinimumQueries)
	}
}
