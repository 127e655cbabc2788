// Package flash turns named partition writes into device operations.
//
// A plan is resolved against the partition layout first. Entries naming a
// partition the layout does not know are dropped with a warning, which
// lets one file set serve layouts that omit optional partitions. Whatever
// survives is written in a single esptool session.
package flash

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/logging"
	"github.com/arthur-debert/fwprov/pkg/partition"
	"github.com/arthur-debert/fwprov/pkg/toolchain"
	"github.com/arthur-debert/fwprov/pkg/types"
)

// Layout is the part of partition.Layout the planner needs
type Layout interface {
	Has(name string) bool
	Offset(name string) (uint32, error)
	Size(name string) (uint32, error)
}

// Resolve maps entries to absolute offsets, keeping their order. Unknown
// partitions are skipped with exactly one warning each; any other layout
// error is returned.
func Resolve(layout Layout, entries []types.FlashEntry) (types.FlashPlan, error) {
	logger := logging.GetLogger("flash")

	var plan types.FlashPlan
	for _, e := range entries {
		offset, err := layout.Offset(e.Partition)
		if err != nil {
			if partition.IsUnknown(err) {
				logger.Warn().
					Str("partition", e.Partition).
					Str("source", e.Source).
					Msg("Partition not in table, skipping")
				plan.Skipped = append(plan.Skipped, e.Partition)
				continue
			}
			return types.FlashPlan{}, err
		}
		plan.Writes = append(plan.Writes, types.ResolvedWrite{
			Partition: e.Partition,
			Offset:    offset,
			Source:    e.Source,
		})
	}
	return plan, nil
}

// Flasher drives esptool against one device
type Flasher struct {
	logger zerolog.Logger
	layout Layout
	tools  *toolchain.Tools
	runner toolchain.Runner
}

// NewFlasher creates a Flasher
func NewFlasher(layout Layout, tools *toolchain.Tools, runner toolchain.Runner) *Flasher {
	return &Flasher{
		logger: logging.GetLogger("flash"),
		layout: layout,
		tools:  tools,
		runner: runner,
	}
}

// Write resolves entries and writes them in one invocation. An empty plan
// is not an error and does not touch the device. Every source is checked
// before the device is touched.
func (f *Flasher) Write(ctx context.Context, entries []types.FlashEntry) (types.FlashPlan, error) {
	plan, err := Resolve(f.layout, entries)
	if err != nil {
		return plan, err
	}
	if plan.Empty() {
		f.logger.Warn().Int("skipped", len(plan.Skipped)).Msg("Nothing to flash")
		return plan, nil
	}

	var missing []string
	for _, w := range plan.Writes {
		if info, err := os.Stat(w.Source); err != nil || info.IsDir() {
			missing = append(missing, w.Source)
		}
	}
	if len(missing) > 0 {
		return plan, errors.Newf(errors.ErrSourceMissing, "%d flash source(s) missing, first: %s", len(missing), missing[0]).
			WithDetail("paths", missing)
	}

	for _, w := range plan.Writes {
		f.logger.Info().
			Str("partition", w.Partition).
			Str("offset", types.FormatHex(w.Offset)).
			Str("source", w.Source).
			Msg("Flash write")
	}
	return plan, f.runner.Run(ctx, f.tools.WriteFlash(plan.Writes))
}

// ReadPath is where Read stores a partition dump
func ReadPath(dir, name string) string {
	return filepath.Join(dir, "read_"+name+".bin")
}

// Read dumps one partition into dir/read_<name>.bin and returns the path.
// A name the layout does not know is reported and skipped: the returned
// path is empty and the error nil. The synthetic entries have no known
// size and cannot be read.
func (f *Flasher) Read(ctx context.Context, name, dir string) (string, error) {
	if !f.layout.Has(name) {
		f.logger.Warn().Str("partition", name).Msg("Partition not in table, nothing to read")
		return "", nil
	}
	offset, err := f.layout.Offset(name)
	if err != nil {
		return "", err
	}
	size, err := f.layout.Size(name)
	if err != nil {
		return "", err
	}

	out := ReadPath(dir, name)
	if err := f.runner.Run(ctx, f.tools.ReadFlash(offset, size, out)); err != nil {
		return "", err
	}
	return out, nil
}

// Erase wipes the entire chip
func (f *Flasher) Erase(ctx context.Context) error {
	f.logger.Warn().Str("port", f.tools.Port).Msg("Erasing entire flash")
	return f.runner.Run(ctx, f.tools.EraseFlash())
}
