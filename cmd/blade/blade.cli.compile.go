package main

import (
	"github.com/spf13/cobra"

	"github.com/itsatony/go-blade"
)

// CompileOptions holds the compile command configuration
type CompileOptions struct {
	OutputPath string
}

func NewCompileOptions() *CompileOptions {
	return &CompileOptions{}
}

func NewCompileCmd(o *CompileOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     CmdNameCompile + " FILE",
		Short:   HelpCompileShort,
		Example: HelpCompileExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd, args[0])
		},
	}
	cmd.Flags().StringVarP(&o.OutputPath, FlagOutput, FlagOutputShort, FlagDefaultOutput, "Output file")
	return cmd
}

func (o *CompileOptions) Run(cmd *cobra.Command, path string) error {
	source, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return newCLIError(ExitCodeInputError, ErrMsgReadFileFailed, err)
	}

	compiler, err := blade.NewViewCompiler("")
	if err != nil {
		return newCLIError(ExitCodeError, ErrMsgCompileFailed, err)
	}
	defer compiler.Close()

	code, err := compiler.Compile(string(source))
	if err != nil {
		return newCLIError(ExitCodeError, ErrMsgCompileFailed, err)
	}

	if err := writeOutput(o.OutputPath, []byte(code), cmd.OutOrStdout()); err != nil {
		return newCLIError(ExitCodeError, ErrMsgWriteOutputFailed, err)
	}
	return nil
}
