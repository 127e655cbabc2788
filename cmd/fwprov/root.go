package fwprov

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/fwprov/internal/version"
	"github.com/arthur-debert/fwprov/pkg/cobrax/topics"
	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/logging"
	"github.com/arthur-debert/fwprov/pkg/types"
	"github.com/arthur-debert/fwprov/pkg/ui"
)

//go:embed topics/*.md
var topicFiles embed.FS

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	verbosity  int
	dryRun     bool
	yes        bool
	projectDir string
	logUID     bool
	output     string
}

// renderer builds the output renderer for --output, bound to the
// command's stdout
func (o *globalOptions) renderer(cmd *cobra.Command) (ui.Renderer, error) {
	format, err := ui.ParseFormat(o.output)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, MsgErrOutput).
			WithDetail("output", o.output)
	}
	return ui.NewRenderer(format, cmd.OutOrStdout())
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "fwprov",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(opts.verbosity)
			if opts.logUID {
				logging.TagInvocation()
			}
			log.Debug().Str("command", cmd.Name()).Strs("args", args).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New(errors.ErrInvalidInput, MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf(MsgVersion, version.Version, version.Commit, version.Date))

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.BoolVar(&opts.dryRun, "dry-run", false, MsgFlagDryRun)
	flags.BoolVarP(&opts.yes, "yes", "y", false, MsgFlagYes)
	flags.StringVarP(&opts.projectDir, "project-dir", "C", "", MsgFlagProjectDir)
	flags.BoolVar(&opts.logUID, "log-uid", false, MsgFlagLogUID)
	flags.StringVarP(&opts.output, "output", "o", "auto", MsgFlagOutput)
	_ = rootCmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(
		[]string{"auto", "term", "text", "json"}, cobra.ShellCompDirectiveNoFileComp))

	rootCmd.AddGroup(&cobra.Group{
		ID:    "pipeline",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newPipelineCmd(opts, types.CommandBuild, MsgBuildShort, MsgBuildLong, MsgBuildExample))
	rootCmd.AddCommand(newPipelineCmd(opts, types.CommandFlash, MsgFlashShort, MsgFlashLong, MsgFlashExample))
	rootCmd.AddCommand(newPipelineCmd(opts, types.CommandRead, MsgReadShort, MsgReadLong, ""))
	rootCmd.AddCommand(newPipelineCmd(opts, types.CommandPrepare, MsgPrepareShort, MsgPrepareLong, ""))
	rootCmd.AddCommand(newPipelineCmd(opts, types.CommandDebug, MsgDebugShort, MsgDebugLong, ""))
	rootCmd.AddCommand(newPipelineCmd(opts, types.CommandPublish, MsgPublishShort, MsgPublishLong, ""))
	rootCmd.AddCommand(newInspectCmd(opts))
	rootCmd.AddCommand(newPartitionsCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newCompletionCmd())

	topicFS, err := fs.Sub(topicFiles, "topics")
	if err == nil {
		tm, err := topics.Initialize(rootCmd, topicFS, topics.Options{
			Extensions: []string{".md"},
			Renderer:   topics.NewGlamourRenderer(),
		})
		if err == nil {
			rootCmd.AddCommand(newTopicsCmd(tm))
		} else {
			log.Warn().Err(err).Msg("Help topics unavailable")
		}
	}

	return rootCmd
}

func newTopicsCmd(tm *topics.TopicManager) *cobra.Command {
	return &cobra.Command{
		Use:     "topics",
		Short:   MsgTopicsShort,
		Long:    MsgTopicsLong,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			tm.WriteList(cmd.OutOrStdout(), cmd.Root().Name())
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
