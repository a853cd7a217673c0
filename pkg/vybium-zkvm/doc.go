// Package vybiumzkvm is the host SDK of the Vybium zkVM.
//
// A host hands a guest binary and an input stream to a ProverClient, gets a
// Proof of the guest's execution back, and verifies it against the same
// binary. The guest itself is assembled with the guest subpackage.
//
// # Quick Start
//
//	client, err := vybiumzkvm.NewProverClient(vybiumzkvm.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	stdin := vybiumzkvm.NewStdin().WriteU32(42).WriteU32(27)
//	proof, err := client.Prove(binary, stdin)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := client.Verify(binary, proof); err != nil {
//		log.Fatal(err)
//	}
//
// # Proof modes
//
// ProofModeCore proofs commit to the full execution trace and open it at
// Fiat-Shamir sampled transitions. ProofModeGroth16 adds a constant-size
// Groth16 proof over BN254 that binds the guest's vkey hash, the digest of
// its public values and the trace commitment. The Groth16 keys come from a
// local setup; share them with ExportGroth16VerifyingKey and
// ImportGroth16VerifyingKey.
//
// # Input and output
//
// Stdin frames every value with a width tag, and the guest's ReadU32 checks
// the tag. Reading past the end of the stream or reading the wrong width
// aborts execution, and Prove returns a *ProverError with ErrCodeExecution.
// PublicValues are the u32 words the guest committed, in write order.
//
// # Architecture
//
//   - pkg/vybium-zkvm/: Host SDK (this package)
//   - pkg/vybium-zkvm/guest/: Guest assembler
//   - internal/vybium-zkvm/: VM, trace proof and Groth16 wrap (not importable)
package vybiumzkvm
