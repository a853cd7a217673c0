package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	vybiumzkvm "github.com/vybium/vybium-zkvm/pkg/vybium-zkvm"
)

func newVerifyCmd(opts *options) *cobra.Command {
	var proofPath, vkPath string
	var minQueries int
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a proof against a guest binary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			if minQueries != 0 {
				cfg.WithMinQueries(minQueries)
			}
			client, err := vybiumzkvm.NewProverClient(cfg)
			if err != nil {
				return err
			}
			bin, err := opts.binary()
			if err != nil {
				return err
			}
			proof, err := vybiumzkvm.LoadProof(proofPath)
			if err != nil {
				return err
			}

			if proof.Mode == vybiumzkvm.ProofModeGroth16 {
				f, err := os.Open(vkPath)
				if err != nil {
					return errors.Wrap(err, "open groth16 verifying key")
				}
				defer f.Close()
				if err := client.ImportGroth16VerifyingKey(f); err != nil {
					return err
				}
			}

			if err := client.Verify(bin, proof); err != nil {
				return err
			}
			values, err := proof.Values()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Proof verified successfully! public values: %v\n", values.Words())
			return nil
		},
	}
	addBinaryFlag(cmd, opts)
	cmd.Flags().StringVar(&proofPath, "proof", "proof.bin", "proof path")
	cmd.Flags().StringVar(&vkPath, "groth16-vk", "groth16.vk", "groth16 verifying key path")
	cmd.Flags().IntVar(&minQueries, "min-queries", 0, "fewest sampled transitions to accept (default 40)")
	return cmd
}
