package fwprov

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/fwprov/pkg/commands"
	"github.com/arthur-debert/fwprov/pkg/config"
	"github.com/arthur-debert/fwprov/pkg/encryption"
	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/partition"
	"github.com/arthur-debert/fwprov/pkg/toolchain"
	"github.com/arthur-debert/fwprov/pkg/types"
	"github.com/arthur-debert/fwprov/pkg/ui/confirmations"
)

// newPipelineCmd creates the command for one pipeline. The first argument
// is the method (or the partition for read); the rest are key=value
// configuration overrides.
func newPipelineCmd(opts *globalOptions, command types.Command, short, long, example string) *cobra.Command {
	use := fmt.Sprintf("%s <method> [key=value...]", command)
	if command == types.CommandRead {
		use = "read <partition> [key=value...]"
	}

	return &cobra.Command{
		Use:     use,
		Short:   short,
		Long:    long,
		Example: example,
		GroupID: "pipeline",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return nil
			}
			if command == types.CommandRead {
				return errors.New(errors.ErrInvalidInput, MsgErrNeedTarget)
			}
			return errors.Newf(errors.ErrInvalidInput, MsgErrNeedMethod, command, methodList(command))
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			if command == types.CommandRead {
				return partitionNames(opts), cobra.ShellCompDirectiveNoFileComp
			}
			return strings.Split(methodList(command), ", "), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts, command, args[0], args[1:])
		},
	}
}

func runPipeline(cmd *cobra.Command, opts *globalOptions, command types.Command, method string, overrides []string) error {
	cfg, err := config.Load(config.LoadOptions{
		ProjectDir: opts.projectDir,
		Overrides:  overrides,
	})
	if err != nil {
		return err
	}

	inv, err := commands.NewInvocation(string(command), method, cfg)
	if err != nil {
		return err
	}

	r, err := opts.renderer(cmd)
	if err != nil {
		return err
	}

	var confirm encryption.Confirmer = confirmations.NewDialog(cmd.InOrStdin(), cmd.ErrOrStderr())
	if opts.yes {
		confirm = confirmations.AutoApprove{}
	}

	log.Info().
		Str("command", string(inv.Command)).
		Str("method", string(inv.Method)).
		Str("variant", string(inv.Variant)).
		Bool("dryRun", opts.dryRun).
		Msg("Running pipeline")

	res, runErr := commands.Dispatch(cmd.Context(), inv, commands.DispatchOptions{
		Runner:  toolchain.NewExecRunner(opts.dryRun),
		Confirm: confirm,
	})
	if res != nil {
		if err := r.RenderResult(res); err != nil {
			return err
		}
	}
	if opts.dryRun && runErr == nil {
		if err := r.RenderMessage(MsgDryRunNotice); err != nil {
			return err
		}
	}
	return runErr
}

func methodList(command types.Command) string {
	methods := commands.Methods(command)
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// partitionNames completes read targets from the project's layout
func partitionNames(opts *globalOptions) []string {
	cfg, err := config.Load(config.LoadOptions{ProjectDir: opts.projectDir})
	if err != nil {
		return nil
	}
	layout, err := partition.Load(cfg.ProjectDir, cfg.Target)
	if err != nil {
		return nil
	}
	return layout.Names()
}
