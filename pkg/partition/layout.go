// Package partition resolves the flash layout of a target: the regions
// declared in partitions_<target>.csv plus the bootloader and the
// partition table itself, whose offsets come from sdkconfig_<target>.defaults.
package partition

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/logging"
	"github.com/arthur-debert/fwprov/pkg/types"
)

// Placement rules for rows with an empty offset cell
const (
	partitionTableSpan uint32 = 0x1000
	appAlignment       uint32 = 0x10000
	dataAlignment      uint32 = 0x1000

	// addressSpace is the first address past the 32-bit flash space
	addressSpace uint64 = 1 << 32
)

// Layout is the resolved, immutable flash layout
type Layout struct {
	entries []types.PartitionEntry
	index   map[string]int

	TablePath    string
	DefaultsPath string
}

// Load resolves the layout for a variant from the files in projectDir
func Load(projectDir string, variant types.Variant) (*Layout, error) {
	return Resolve(
		filepath.Join(projectDir, variant.PartitionTableFile()),
		filepath.Join(projectDir, variant.DefaultsFile()),
	)
}

// Resolve builds a Layout from a partition table and a defaults file.
// Table rows come first in file order, followed by the synthetic
// bootloader and partition-table entries.
func Resolve(tablePath, defaultsPath string) (*Layout, error) {
	logger := logging.GetLogger("partition")

	defaults, err := ReadDefaults(defaultsPath)
	if err != nil {
		return nil, err
	}
	if defaults.BootloaderDefaulted {
		logger.Warn().
			Str("path", defaultsPath).
			Str("offset", types.FormatHex(DefaultBootloaderOffset)).
			Msgf("%s not set, using default", KeyBootloaderOffset)
	}

	f, err := os.Open(tablePath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot open partition table %s", tablePath)
	}
	defer f.Close()

	rows, err := ParseTable(f, tablePath)
	if err != nil {
		return nil, err
	}

	l, err := build(rows, defaults)
	if err != nil {
		return nil, err
	}
	l.TablePath = tablePath
	l.DefaultsPath = defaultsPath

	logger.Debug().
		Int("partitions", len(rows)).
		Str("table", tablePath).
		Msg("Partition layout resolved")
	return l, nil
}

func build(rows []Row, defaults *Defaults) (*Layout, error) {
	l := &Layout{
		entries: make([]types.PartitionEntry, 0, len(rows)+2),
		index:   make(map[string]int, len(rows)+2),
	}

	cursor := uint64(defaults.PartitionTableOffset) + uint64(partitionTableSpan)
	var prev *types.PartitionEntry
	for _, row := range rows {
		offset := row.Offset
		if !row.HasOffset {
			align := dataAlignment
			if row.Type == "app" {
				align = appAlignment
			}
			placed := alignUp(cursor, uint64(align))
			if placed >= addressSpace {
				return nil, errors.Newf(errors.ErrPartitionInvalid,
					"partition %s does not fit below 4GiB", row.Name).
					WithDetail("line", row.Line)
			}
			offset = uint32(placed)
		}

		entry := types.PartitionEntry{
			Name:      row.Name,
			Type:      row.Type,
			SubType:   row.SubType,
			Offset:    offset,
			Size:      row.Size,
			Flags:     row.Flags,
			SizeKnown: true,
		}

		if entry.End() > addressSpace {
			return nil, errors.Newf(errors.ErrPartitionInvalid,
				"partition %s at %s with size %s ends past 4GiB",
				entry.Name, entry.HexOffset(), types.FormatHex(entry.Size)).
				WithDetail("line", row.Line)
		}

		if prev != nil {
			if entry.Offset < prev.Offset {
				return nil, errors.Newf(errors.ErrPartitionInvalid,
					"partition %s at %s precedes %s at %s",
					entry.Name, entry.HexOffset(), prev.Name, prev.HexOffset()).
					WithDetail("line", row.Line)
			}
			if uint64(entry.Offset) < prev.End() {
				return nil, errors.Newf(errors.ErrPartitionInvalid,
					"partition %s at %s overlaps %s ending at %s",
					entry.Name, entry.HexOffset(), prev.Name, types.FormatEnd(prev.End())).
					WithDetail("line", row.Line)
			}
		}

		if err := l.add(entry); err != nil {
			return nil, err
		}
		prev = &entry
		cursor = entry.End()
	}

	synthetic := []types.PartitionEntry{
		{
			Name:      types.PartitionBootloader,
			Type:      types.PartitionBootloader,
			Offset:    defaults.BootloaderOffset,
			Synthetic: true,
		},
		{
			Name:      types.PartitionTable,
			Type:      types.PartitionTable,
			Offset:    defaults.PartitionTableOffset,
			Synthetic: true,
		},
	}
	for _, e := range synthetic {
		if err := l.add(e); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Layout) add(e types.PartitionEntry) error {
	if _, dup := l.index[e.Name]; dup {
		return errors.Newf(errors.ErrPartitionInvalid, "duplicate partition name %q", e.Name).
			WithDetail("partition", e.Name)
	}
	l.index[e.Name] = len(l.entries)
	l.entries = append(l.entries, e)
	return nil
}

// UnknownPartition builds the error returned for names not in the layout
func UnknownPartition(name string) error {
	return errors.Newf(errors.ErrPartitionUnknown, "partition %q not in layout", name).
		WithDetail("partition", name)
}

// IsUnknown reports whether err is an unknown-partition error
func IsUnknown(err error) bool {
	return errors.IsErrorCode(err, errors.ErrPartitionUnknown)
}

// Has reports whether name resolves
func (l *Layout) Has(name string) bool {
	_, ok := l.index[name]
	return ok
}

// Entry returns the full entry for name
func (l *Layout) Entry(name string) (types.PartitionEntry, error) {
	i, ok := l.index[name]
	if !ok {
		return types.PartitionEntry{}, UnknownPartition(name)
	}
	return l.entries[i], nil
}

// Offset returns the absolute flash address of name
func (l *Layout) Offset(name string) (uint32, error) {
	e, err := l.Entry(name)
	if err != nil {
		return 0, err
	}
	return e.Offset, nil
}

// Size returns the declared size of name. The synthetic entries have no
// size at this layer and yield an ErrPartitionSize error.
func (l *Layout) Size(name string) (uint32, error) {
	e, err := l.Entry(name)
	if err != nil {
		return 0, err
	}
	if !e.SizeKnown {
		return 0, errors.Newf(errors.ErrPartitionSize, "size of %q is not known from the partition table", name).
			WithDetail("partition", name)
	}
	return e.Size, nil
}

// Type returns the type tag of name
func (l *Layout) Type(name string) (string, error) {
	e, err := l.Entry(name)
	if err != nil {
		return "", err
	}
	return e.Type, nil
}

// Names lists table entries in file order, then the synthetic entries
func (l *Layout) Names() []string {
	names := make([]string, len(l.entries))
	for i, e := range l.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of all entries in Names order
func (l *Layout) Entries() []types.PartitionEntry {
	out := make([]types.PartitionEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
