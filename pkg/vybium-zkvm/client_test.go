package vybiumzkvm_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	vybiumzkvm "github.com/vybium/vybium-zkvm/pkg/vybium-zkvm"
	"github.com/vybium/vybium-zkvm/pkg/vybium-zkvm/guest"
)

func adder(t *testing.T) *vybiumzkvm.GuestBinary {
	t.Helper()
	bin, err := guest.New("adder").
		ReadU32().
		ReadU32().
		AddU32().
		WriteU32().
		Halt().
		Build()
	require.NoError(t, err)
	return bin
}

func doubler(t *testing.T) *vybiumzkvm.GuestBinary {
	t.Helper()
	bin, err := guest.New("doubler").
		ReadU32().
		ReadU32().
		Pop(1).
		Dup(0).
		AddU32().
		WriteU32().
		Halt().
		Build()
	require.NoError(t, err)
	return bin
}

// padded is adder with enough nops that proofs sample transitions instead
// of opening the whole trace
func padded(t *testing.T) *vybiumzkvm.GuestBinary {
	t.Helper()
	b := guest.New("padded").ReadU32().ReadU32()
	for i := 0; i < 40; i++ {
		b.Nop()
	}
	bin, err := b.AddU32().WriteU32().Halt().Build()
	require.NoError(t, err)
	return bin
}

func newClient(t *testing.T, cfg *vybiumzkvm.Config) *vybiumzkvm.ProverClient {
	t.Helper()
	if cfg == nil {
		cfg = vybiumzkvm.DefaultConfig()
	}
	client, err := vybiumzkvm.NewProverClient(cfg.WithDebug(nil))
	require.NoError(t, err)
	return client
}

func stdin(a, b uint32) *vybiumzkvm.Stdin {
	return vybiumzkvm.NewStdin().WriteU32(a).WriteU32(b)
}

func requireVerifierCode(t *testing.T, err error, code vybiumzkvm.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	var verr *vybiumzkvm.VerifierError
	require.True(t, errors.As(err, &verr), "got %T: %v", err, err)
	require.Equal(t, code, verr.Code, "got %v", err)
}

func TestProveAndVerify(t *testing.T) {
	tests := []struct {
		name string
		a, b uint32
		want uint32
	}{
		{"42+27", 42, 27, 69},
		{"wrap", 0xffffffff, 1, 0},
		{"zero", 0, 0, 0},
	}

	client := newClient(t, nil)
	bin := adder(t)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			proof, err := client.Prove(bin, stdin(tc.a, tc.b))
			require.NoError(t, err)
			require.Equal(t, vybiumzkvm.ProofModeCore, proof.Mode)

			values, err := proof.Values()
			require.NoError(t, err)
			got, err := values.ReadU32()
			require.NoError(t, err)
			require.Equal(t, tc.want, got)

			require.NoError(t, client.Verify(bin, proof))
		})
	}
}

func TestExecute(t *testing.T) {
	client := newClient(t, nil)

	values, report, err := client.Execute(adder(t), stdin(42, 27).WriteU32(5))
	require.NoError(t, err)
	require.Equal(t, []uint32{69}, values.Words())
	require.Greater(t, report.Cycles, uint64(0))
	require.Equal(t, 2, report.UnreadInput)
}

func TestProveFailsOnShortInput(t *testing.T) {
	client := newClient(t, nil)

	_, err := client.Prove(adder(t), vybiumzkvm.NewStdin().WriteU32(42))
	require.Error(t, err)

	var perr *vybiumzkvm.ProverError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, vybiumzkvm.ErrCodeExecution, perr.Code)
}

func TestProveFailsOnCycleLimit(t *testing.T) {
	client := newClient(t, vybiumzkvm.DefaultConfig().WithMaxCycles(3))

	_, err := client.Prove(adder(t), stdin(1, 2))
	require.True(t, errors.Is(err, &vybiumzkvm.ProverError{Code: vybiumzkvm.ErrCodeExecution}))
}

func TestVerifyRejectsOtherBinary(t *testing.T) {
	client := newClient(t, nil)

	proof, err := client.Prove(adder(t), stdin(42, 27))
	require.NoError(t, err)

	requireVerifierCode(t, client.Verify(doubler(t), proof), vybiumzkvm.ErrCodeProgramMismatch)

	// claiming the other binary's key does not help
	proof.VkeyHash = doubler(t).VkeyHash()
	requireVerifierCode(t, client.Verify(doubler(t), proof), vybiumzkvm.ErrCodeInvalidProof)
}

func TestVerifyRejectsTamperedPublicValues(t *testing.T) {
	client := newClient(t, nil)
	bin := adder(t)

	proof, err := client.Prove(bin, stdin(42, 27))
	require.NoError(t, err)

	proof.PublicValues[0] ^= 1
	requireVerifierCode(t, client.Verify(bin, proof), vybiumzkvm.ErrCodeInvalidProof)

	proof.PublicValues = proof.PublicValues[:3]
	requireVerifierCode(t, client.Verify(bin, proof), vybiumzkvm.ErrCodeMalformedProof)
}

func TestVerifyRejectsMalformedProof(t *testing.T) {
	client := newClient(t, nil)
	bin := adder(t)

	proof, err := client.Prove(bin, stdin(1, 2))
	require.NoError(t, err)

	truncated := *proof
	core := *proof.Core
	core.Openings = core.Openings[:1]
	truncated.Core = &core
	requireVerifierCode(t, client.Verify(bin, &truncated), vybiumzkvm.ErrCodeMalformedProof)

	noCore := *proof
	noCore.Core = nil
	requireVerifierCode(t, client.Verify(bin, &noCore), vybiumzkvm.ErrCodeMalformedProof)

	badMode := *proof
	badMode.Mode = "plonk"
	requireVerifierCode(t, client.Verify(bin, &badMode), vybiumzkvm.ErrCodeMalformedProof)

	requireVerifierCode(t, client.Verify(bin, nil), vybiumzkvm.ErrCodeMalformedProof)
}

func TestProofSaveLoad(t *testing.T) {
	client := newClient(t, nil)
	bin := adder(t)

	proof, err := client.Prove(bin, stdin(42, 27))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "proof.bin")
	require.NoError(t, proof.Save(path))

	loaded, err := vybiumzkvm.LoadProof(path)
	require.NoError(t, err)
	require.Equal(t, proof.PublicValues, loaded.PublicValues)
	require.Equal(t, vybiumzkvm.Version, loaded.SDKVersion)
	require.NoError(t, client.Verify(bin, loaded))

	_, err = vybiumzkvm.UnmarshalProof([]byte{0xff, 0x00})
	requireVerifierCode(t, err, vybiumzkvm.ErrCodeMalformedProof)
}

func TestVerifyAcceptsLowerSecurityProof(t *testing.T) {
	bin := padded(t)
	prover := newClient(t, vybiumzkvm.DefaultConfig().WithSecurityLevel(80))

	proof, err := prover.Prove(bin, stdin(42, 27))
	require.NoError(t, err)
	require.NoError(t, prover.Verify(bin, proof))
	require.NoError(t, newClient(t, nil).Verify(bin, proof))

	// a saved proof keeps its query count
	path := filepath.Join(t.TempDir(), "proof.bin")
	require.NoError(t, proof.Save(path))
	loaded, err := vybiumzkvm.LoadProof(path)
	require.NoError(t, err)
	require.NoError(t, newClient(t, nil).Verify(bin, loaded))

	strict := newClient(t, vybiumzkvm.DefaultConfig().WithMinQueries(64))
	requireVerifierCode(t, strict.Verify(bin, proof), vybiumzkvm.ErrCodeInsufficientSecurity)
}

func TestConcurrentUse(t *testing.T) {
	client := newClient(t, nil)
	bin := adder(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(a uint32) {
			defer wg.Done()
			proof, err := client.Prove(bin, stdin(a, 1))
			if err == nil {
				err = client.Verify(bin, proof)
			}
			errs <- err
		}(uint32(i))
		go func() {
			defer wg.Done()
			client.WithLogger(zerolog.Nop())
			errs <- nil
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestGuestBinaryRoundTrip(t *testing.T) {
	bin := adder(t)
	path := filepath.Join(t.TempDir(), "adder.bin")
	require.NoError(t, bin.Save(path))

	loaded, err := vybiumzkvm.ReadGuestBinary(path)
	require.NoError(t, err)
	require.Equal(t, "adder", loaded.Name())
	require.Equal(t, bin.VkeyHash(), loaded.VkeyHash())

	_, err = vybiumzkvm.NewGuestBinary([]byte("not a binary"))
	require.True(t, errors.Is(err, &vybiumzkvm.ProverError{Code: vybiumzkvm.ErrCodeInvalidBinary}))
}

func TestSetup(t *testing.T) {
	client := newClient(t, nil)
	bin := adder(t)

	pk, vk, err := client.Setup(bin)
	require.NoError(t, err)
	require.Equal(t, bin.VkeyHash(), vk.Hash())
	require.Equal(t, vk, pk.VerifyingKey())
	require.Len(t, vk.String(), 66)

	proof, err := client.ProveWithKey(pk, stdin(2, 3))
	require.NoError(t, err)
	require.NoError(t, client.VerifyWithKey(vk, bin, proof))

	_, otherVK, err := client.Setup(doubler(t))
	require.NoError(t, err)
	requireVerifierCode(t, client.VerifyWithKey(otherVK, bin, proof), vybiumzkvm.ErrCodeProgramMismatch)
}

func TestGroth16ProveAndVerify(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup in short mode")
	}
	cfg := vybiumzkvm.DefaultConfig().WithProofMode(vybiumzkvm.ProofModeGroth16)
	client := newClient(t, cfg)
	bin := adder(t)

	proof, err := client.Prove(bin, stdin(42, 27))
	require.NoError(t, err)
	require.Equal(t, vybiumzkvm.ProofModeGroth16, proof.Mode)
	require.NotEmpty(t, proof.Groth16)
	require.NoError(t, client.Verify(bin, proof))

	// a verifier with the exported key accepts the proof
	var vk bytes.Buffer
	require.NoError(t, client.ExportGroth16VerifyingKey(&vk))
	verifier := newClient(t, cfg)
	require.NoError(t, verifier.ImportGroth16VerifyingKey(&vk))
	require.NoError(t, verifier.Verify(bin, proof))

	// its own setup would not match the imported key
	_, err = verifier.Prove(bin, stdin(1, 2))
	require.True(t, errors.Is(err, &vybiumzkvm.ProverError{Code: vybiumzkvm.ErrCodeInvalidConfig}), "got %v", err)

	// a verifier with its own setup does not
	stranger := newClient(t, cfg)
	requireVerifierCode(t, stranger.Verify(bin, proof), vybiumzkvm.ErrCodeInvalidProof)

	stripped := *proof
	stripped.Groth16 = nil
	requireVerifierCode(t, client.Verify(bin, &stripped), vybiumzkvm.ErrCodeMalformedProof)
}
