package style

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/fwprov/pkg/types"
)

// partitionView is the serialized form of a layout entry. Addresses are
// hex strings, the way the partition table spells them.
type partitionView struct {
	Name      string `yaml:"name" toml:"name" json:"name"`
	Type      string `yaml:"type,omitempty" toml:"type,omitempty" json:"type,omitempty"`
	SubType   string `yaml:"subtype,omitempty" toml:"subtype,omitempty" json:"subtype,omitempty"`
	Offset    string `yaml:"offset" toml:"offset" json:"offset"`
	Size      string `yaml:"size,omitempty" toml:"size,omitempty" json:"size,omitempty"`
	Flags     string `yaml:"flags,omitempty" toml:"flags,omitempty" json:"flags,omitempty"`
	Synthetic bool   `yaml:"synthetic,omitempty" toml:"synthetic,omitempty" json:"synthetic,omitempty"`
}

type layoutView struct {
	Partitions []partitionView `yaml:"partitions" toml:"partitions" json:"partitions"`
}

// LayoutView converts entries to their serialized form
func LayoutView(entries []types.PartitionEntry) interface{} {
	return toView(entries)
}

func toView(entries []types.PartitionEntry) layoutView {
	v := layoutView{Partitions: make([]partitionView, 0, len(entries))}
	for _, e := range entries {
		p := partitionView{
			Name:      e.Name,
			Type:      e.Type,
			SubType:   e.SubType,
			Offset:    e.HexOffset(),
			Flags:     e.Flags,
			Synthetic: e.Synthetic,
		}
		if e.SizeKnown {
			p.Size = types.FormatHex(e.Size)
		}
		v.Partitions = append(v.Partitions, p)
	}
	return v
}

// EncodeLayout serializes entries as "yaml" or "toml"
func EncodeLayout(entries []types.PartitionEntry, format string) ([]byte, error) {
	v := toView(entries)
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return yaml.Marshal(v)
	case "toml":
		return toml.Marshal(v)
	}
	return nil, fmt.Errorf("unknown layout format %q (want yaml or toml)", format)
}
