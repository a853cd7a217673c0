package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExecuteCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Run the guest without proving",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			bin, err := opts.binary()
			if err != nil {
				return err
			}

			values, report, err := client.Execute(bin, opts.stdin())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "public values: %v\ncycles: %d\n", values.Words(), report.Cycles)
			return nil
		},
	}
	addBinaryFlag(cmd, opts)
	addInputFlags(cmd, opts)
	return cmd
}
