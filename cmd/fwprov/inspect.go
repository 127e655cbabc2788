package fwprov

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/fwprov/pkg/update"
)

func newInspectCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "inspect <update.bin>",
		Short:   MsgInspectShort,
		Long:    MsgInspectLong,
		GroupID: "misc",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.renderer(cmd)
			if err != nil {
				return err
			}
			header, err := update.Verify(args[0])
			if err != nil {
				return err
			}
			return r.RenderHeader(header)
		},
	}
}
