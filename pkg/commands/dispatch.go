// Package commands is the firmware pipeline: it turns an Invocation into
// the ordered sequence of builds, encryptions, image compositions and
// device operations it stands for.
//
// Every invocation runs exactly one pipeline to completion or to its
// first failure. Nothing is retried and nothing is rolled back.
package commands

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/fwprov/pkg/config"
	"github.com/arthur-debert/fwprov/pkg/encryption"
	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/logging"
	"github.com/arthur-debert/fwprov/pkg/partition"
	"github.com/arthur-debert/fwprov/pkg/publish"
	"github.com/arthur-debert/fwprov/pkg/toolchain"
	"github.com/arthur-debert/fwprov/pkg/types"
	"github.com/arthur-debert/fwprov/pkg/update"
)

// DispatchOptions carries the collaborators a pipeline needs
type DispatchOptions struct {
	Runner toolchain.Runner

	// Confirm approves secure provisioning. Nil skips the prompt.
	Confirm encryption.Confirmer

	// Store overrides the update_store location, mainly for tests
	Store publish.Store
}

// Result summarizes what a pipeline did
type Result struct {
	Invocation *Invocation

	// Steps are the completed steps, in order
	Steps []string

	// Failed names the step that stopped the pipeline, if any
	Failed string

	// Artifacts written to disk
	Artifacts []string

	Plan     *types.FlashPlan
	Header   *update.Header
	Release  *publish.Release
	ReadPath string
}

type pipeline struct {
	logger zerolog.Logger
	inv    *Invocation
	cfg    *config.BuildConfig
	tools  *toolchain.Tools
	opts   DispatchOptions
	result *Result

	layout *partition.Layout
}

// Dispatch runs the pipeline for inv. The context is checked between
// steps, so an interrupt stops the pipeline before the next step starts.
func Dispatch(ctx context.Context, inv *Invocation, opts DispatchOptions) (*Result, error) {
	logger := logging.GetLogger("commands.dispatch")
	logger.Debug().
		Str("command", string(inv.Command)).
		Str("method", string(inv.Method)).
		Str("variant", string(inv.Variant)).
		Str("projectDir", inv.ProjectDir).
		Msg("Dispatching pipeline")

	if opts.Runner == nil {
		return nil, errors.New(errors.ErrInternal, "dispatch requires a runner")
	}

	p := &pipeline{
		logger: logger,
		inv:    inv,
		cfg:    inv.Config,
		tools:  toolchain.FromConfig(inv.Config),
		opts:   opts,
		result: &Result{Invocation: inv},
	}

	var err error
	switch inv.Command {
	case types.CommandBuild:
		err = p.build(ctx)
	case types.CommandFlash:
		err = p.flash(ctx)
	case types.CommandRead:
		err = p.read(ctx)
	case types.CommandPrepare:
		err = p.prepare(ctx)
	case types.CommandDebug:
		err = p.debug(ctx)
	case types.CommandPublish:
		err = p.publish(ctx)
	default:
		err = errors.Newf(errors.ErrInvalidInput, "unknown command: %s", inv.Command)
	}

	if err != nil {
		logger.Error().
			Err(err).
			Strs("completed", p.result.Steps).
			Msg("Pipeline failed")
		return p.result, err
	}

	logger.Info().
		Str("command", string(inv.Command)).
		Str("method", string(inv.Method)).
		Int("steps", len(p.result.Steps)).
		Msg("Pipeline completed")
	return p.result, nil
}

// step runs fn unless the context is already done, and records it
func (p *pipeline) step(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, errors.ErrCanceled, "interrupted before %s", name)
	}
	p.logger.Info().Str("step", name).Msg("Pipeline step")
	if err := fn(); err != nil {
		if p.result.Failed == "" {
			p.result.Failed = name
		}
		return err
	}
	p.result.Steps = append(p.result.Steps, name)
	return nil
}

// run executes one external command as a pipeline step
func (p *pipeline) run(ctx context.Context, cmd toolchain.Command) error {
	return p.step(ctx, cmd.Description, func() error {
		return p.opts.Runner.Run(ctx, cmd)
	})
}

func (p *pipeline) loadLayout() (*partition.Layout, error) {
	if p.layout != nil {
		return p.layout, nil
	}
	l, err := partition.Load(p.inv.ProjectDir, p.inv.Variant)
	if err != nil {
		return nil, err
	}
	p.layout = l
	return l, nil
}

func (p *pipeline) artifact(path string) {
	p.result.Artifacts = append(p.result.Artifacts, path)
}
