package main

import (
	"github.com/spf13/cobra"

	"github.com/vybium/vybium-zkvm/examples/sum/guest"
	vybiumzkvm "github.com/vybium/vybium-zkvm/pkg/vybium-zkvm"
)

// options are the flags shared by every subcommand
type options struct {
	mode          string
	maxCycles     uint64
	securityLevel int

	binaryPath string
	a, b       uint32
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "vybium-zkvm",
		Short:         "Prove and verify the sum guest on the Vybium zkVM",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			vybiumzkvm.SetupLogger()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.mode, "mode", "", "proof mode: core or groth16 (default from "+vybiumzkvm.EnvProofMode+" or core)")
	flags.Uint64Var(&opts.maxCycles, "max-cycles", 0, "execution cycle bound (default from "+vybiumzkvm.EnvMaxCycles+")")
	flags.IntVar(&opts.securityLevel, "security", 0, "nominal security level selecting the query count (default 128)")

	root.AddCommand(
		newRunCmd(opts),
		newBuildCmd(),
		newExecuteCmd(opts),
		newProveCmd(opts),
		newVerifyCmd(opts),
	)
	return root
}

// config merges the environment and the flags
func (o *options) config(cmd *cobra.Command) (*vybiumzkvm.Config, error) {
	cfg, err := vybiumzkvm.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if o.mode != "" {
		mode, err := vybiumzkvm.ParseProofMode(o.mode)
		if err != nil {
			return nil, err
		}
		cfg.WithProofMode(mode)
	}
	if o.maxCycles != 0 {
		cfg.WithMaxCycles(o.maxCycles)
	}
	if o.securityLevel != 0 {
		cfg.WithSecurityLevel(o.securityLevel)
	}
	cfg.WithDebug(cmd.OutOrStdout())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *options) client(cmd *cobra.Command) (*vybiumzkvm.ProverClient, error) {
	cfg, err := o.config(cmd)
	if err != nil {
		return nil, err
	}
	return vybiumzkvm.NewProverClient(cfg)
}

// binary loads --binary, or assembles the built-in sum guest
func (o *options) binary() (*vybiumzkvm.GuestBinary, error) {
	if o.binaryPath == "" {
		return guest.Binary()
	}
	return vybiumzkvm.ReadGuestBinary(o.binaryPath)
}

func (o *options) stdin() *vybiumzkvm.Stdin {
	return vybiumzkvm.NewStdin().WriteU32(o.a).WriteU32(o.b)
}

func addBinaryFlag(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.binaryPath, "binary", "", "guest binary (default: built-in sum guest)")
}

func addInputFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().Uint32Var(&opts.a, "a", 42, "first operand")
	cmd.Flags().Uint32Var(&opts.b, "b", 27, "second operand")
}
