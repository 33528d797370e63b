package main

import (
	"github.com/spf13/cobra"
)

// RenderOptions holds the render command configuration
type RenderOptions struct {
	ViewerFlags ViewerFlags

	DataInline string
	DataFile   string
	OutputPath string
}

func NewRenderOptions() *RenderOptions {
	return &RenderOptions{}
}

func NewRenderCmd(o *RenderOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     CmdNameRender + " NAME",
		Short:   HelpRenderShort,
		Example: HelpRenderExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd, args[0])
		},
	}
	o.ViewerFlags.Set(cmd)
	cmd.Flags().StringVarP(&o.DataInline, FlagData, FlagDataShort, "", "Parameters as JSON or YAML")
	cmd.Flags().StringVarP(&o.DataFile, FlagDataFile, FlagDataFileShort, "", `Parameters file (use "-" for stdin)`)
	cmd.Flags().StringVarP(&o.OutputPath, FlagOutput, FlagOutputShort, FlagDefaultOutput, "Output file")
	return cmd
}

func (o *RenderOptions) Run(cmd *cobra.Command, name string) error {
	data, err := loadData(o.DataInline, o.DataFile, cmd.InOrStdin())
	if err != nil {
		return newCLIError(ExitCodeInputError, ErrMsgInvalidData, err)
	}

	v, err := o.ViewerFlags.NewViewer(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer v.Close()

	out, err := v.Render(cmd.Context(), name, data)
	if err != nil {
		return newCLIError(ExitCodeError, ErrMsgRenderFailed, err)
	}

	if err := writeOutput(o.OutputPath, []byte(out), cmd.OutOrStdout()); err != nil {
		return newCLIError(ExitCodeError, ErrMsgWriteOutputFailed, err)
	}
	return nil
}
