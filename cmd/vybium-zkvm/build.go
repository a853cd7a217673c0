package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vybium/vybium-zkvm/examples/sum/guest"
)

func newBuildCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write the sum guest binary",
		RunE: func(cmd *cobra.Command, args []string) error {
			bin, err := guest.Binary()
			if err != nil {
				return err
			}
			if err := bin.Save(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes, vkey %x)\n", out, len(bin.Bytes()), bin.VkeyHash())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", guest.Name+".bin", "output path")
	return cmd
}
