package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Prove and verify in one go",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			bin, err := opts.binary()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Generating proof...")
			proof, err := client.Prove(bin, opts.stdin())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Proof generated successfully!")

			fmt.Fprintln(out, "Verifying proof...")
			if err := client.Verify(bin, proof); err != nil {
				return err
			}
			fmt.Fprintln(out, "Proof verified successfully!")
			return nil
		},
	}
	addBinaryFlag(cmd, opts)
	addInputFlags(cmd, opts)
	return cmd
}
