package fwprov

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/fwprov/pkg/config"
	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/partition"
	"github.com/arthur-debert/fwprov/pkg/style"
)

func newPartitionsCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "partitions [key=value...]",
		Short:   MsgPartitionsShort,
		Long:    MsgPartitionsLong,
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.LoadOptions{ProjectDir: opts.projectDir, Overrides: args})
			if err != nil {
				return err
			}
			layout, err := partition.Load(cfg.ProjectDir, cfg.Target)
			if err != nil {
				return err
			}

			switch strings.ToLower(format) {
			case "", "table":
				r, err := opts.renderer(cmd)
				if err != nil {
					return err
				}
				return r.RenderLayout(layout.Entries())
			case "yaml", "yml", "toml":
				out, err := style.EncodeLayout(layout.Entries(), format)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			default:
				return errors.New(errors.ErrInvalidInput, MsgErrFormat).WithDetail("format", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", MsgFlagFormat)
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{"table", "yaml", "toml"}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}
