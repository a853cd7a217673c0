package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	vybiumzkvm "github.com/vybium/vybium-zkvm/pkg/vybium-zkvm"
)

func newProveCmd(opts *options) *cobra.Command {
	var proofPath, vkPath string
	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Prove an execution and write the proof",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			bin, err := opts.binary()
			if err != nil {
				return err
			}

			proof, err := client.Prove(bin, opts.stdin())
			if err != nil {
				return err
			}
			if err := proof.Save(proofPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", proofPath)

			if proof.Mode == vybiumzkvm.ProofModeGroth16 {
				if err := writeGroth16Key(client, vkPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", vkPath)
			}
			return nil
		},
	}
	addBinaryFlag(cmd, opts)
	addInputFlags(cmd, opts)
	cmd.Flags().StringVar(&proofPath, "proof", "proof.bin", "proof output path")
	cmd.Flags().StringVar(&vkPath, "groth16-vk", "groth16.vk", "groth16 verifying key output path")
	return cmd
}

func writeGroth16Key(client *vybiumzkvm.ProverClient, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create verifying key file")
	}
	defer f.Close()
	return client.ExportGroth16VerifyingKey(f)
}
