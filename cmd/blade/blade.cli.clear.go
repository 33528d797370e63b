package main

import (
	"github.com/spf13/cobra"
)

// ClearOptions holds the clear command configuration
type ClearOptions struct {
	ViewerFlags ViewerFlags
}

func NewClearOptions() *ClearOptions {
	return &ClearOptions{}
}

func NewClearCmd(o *ClearOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     CmdNameClear,
		Short:   HelpClearShort,
		Example: HelpClearExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.Run(cmd)
		},
	}
	o.ViewerFlags.Set(cmd)
	return cmd
}

func (o *ClearOptions) Run(cmd *cobra.Command) error {
	if o.ViewerFlags.ConfigPath == "" && o.ViewerFlags.CompilationPath == "" {
		return newCLIError(ExitCodeUsageError, ErrMsgClearNeedsLocation, nil)
	}

	v, err := o.ViewerFlags.NewViewer(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer v.Close()

	if err := v.RemoveCompiledFiles(cmd.Context()); err != nil {
		return newCLIError(ExitCodeError, ErrMsgClearFailed, err)
	}
	return nil
}
