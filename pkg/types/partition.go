package types

import "fmt"

// Names of the two entries that do not come from the partition table
const (
	PartitionBootloader = "bootloader"
	PartitionTable      = "partition-table"
)

// Table partitions the pipeline writes to by name
const (
	PartitionOTAData = "otadata"
	PartitionPhyInit = "phy_init"
	PartitionApp     = "app_0"
	PartitionData    = "data_0"
)

// PartitionEntry is one named region of flash
type PartitionEntry struct {
	Name    string `yaml:"name" toml:"name"`
	Type    string `yaml:"type,omitempty" toml:"type,omitempty"`
	SubType string `yaml:"subtype,omitempty" toml:"subtype,omitempty"`
	Offset  uint32 `yaml:"offset" toml:"offset"`
	Size    uint32 `yaml:"size,omitempty" toml:"size,omitempty"`
	Flags   string `yaml:"flags,omitempty" toml:"flags,omitempty"`

	// SizeKnown is false for the synthetic entries, whose extent is
	// decided by the build and not by the table.
	SizeKnown bool `yaml:"-" toml:"-"`
	Synthetic bool `yaml:"synthetic,omitempty" toml:"synthetic,omitempty"`
}

// End returns the first address past the entry. Only meaningful when
// SizeKnown is true. It is 64-bit so an entry ending at the top of the
// 32-bit address space does not wrap.
func (p PartitionEntry) End() uint64 {
	return uint64(p.Offset) + uint64(p.Size)
}

// HexOffset formats the offset the way the flashing tools expect it
func (p PartitionEntry) HexOffset() string {
	return FormatHex(p.Offset)
}

// FormatHex renders an address as 0x-prefixed lowercase hex
func FormatHex(v uint32) string {
	return fmt.Sprintf("0x%x", v)
}

// FormatEnd renders an end address, which may be 1<<32
func FormatEnd(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}
