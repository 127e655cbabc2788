package fwprov

import (
	"github.com/spf13/cobra"

	"github.com/arthur-debert/fwprov/pkg/config"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "config [key=value...]",
		Short:   MsgConfigShort,
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.LoadOptions{ProjectDir: opts.projectDir, Overrides: args})
			if err != nil {
				return err
			}
			out, err := config.Dump(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
