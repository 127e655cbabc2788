package style

import (
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/fwprov/pkg/types"
	"github.com/arthur-debert/fwprov/pkg/update"
)

var sampleEntries = []types.PartitionEntry{
	{Name: "bootloader", Offset: 0x0, Synthetic: true},
	{Name: "partition-table", Offset: 0x8000, Synthetic: true},
	{Name: "nvs", Type: "data", SubType: "nvs", Offset: 0x9000, Size: 0x4000, SizeKnown: true},
	{Name: "app_0", Type: "app", SubType: "ota_0", Offset: 0x10000, Size: 0x140000, SizeKnown: true, Flags: "encrypted"},
}

func TestLayoutRows(t *testing.T) {
	rows := LayoutRows(sampleEntries)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"bootloader", "", "", "0x0", "-", "-", ""}, rows[0])
	assert.Equal(t, []string{"nvs", "data", "nvs", "0x9000", "0x4000", "0xd000", ""}, rows[2])
	assert.Equal(t, []string{"app_0", "app", "ota_0", "0x10000", "0x140000", "0x150000", "encrypted"}, rows[3])
}

func TestRenderLayout(t *testing.T) {
	out, err := RenderLayout(sampleEntries, false)
	require.NoError(t, err)
	for _, want := range []string{"Name", "Offset", "bootloader", "partition-table", "0x140000"} {
		assert.Contains(t, out, want)
	}

	empty, err := RenderLayout(nil, true)
	require.NoError(t, err)
	assert.Contains(t, empty, "No partitions")
}

func TestEncodeLayoutYAML(t *testing.T) {
	out, err := EncodeLayout(sampleEntries, "yaml")
	require.NoError(t, err)

	var decoded struct {
		Partitions []map[string]interface{} `yaml:"partitions"`
	}
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	require.Len(t, decoded.Partitions, 4)
	assert.Equal(t, "0x8000", decoded.Partitions[1]["offset"])
	assert.Equal(t, true, decoded.Partitions[1]["synthetic"])
	assert.NotContains(t, decoded.Partitions[1], "size")
	assert.Equal(t, "0x140000", decoded.Partitions[3]["size"])
}

func TestEncodeLayoutTOML(t *testing.T) {
	out, err := EncodeLayout(sampleEntries, "TOML")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), "[[partitions]]"))

	var decoded layoutView
	require.NoError(t, toml.Unmarshal(out, &decoded))
	assert.Equal(t, toView(sampleEntries), decoded)
}

func TestEncodeLayoutUnknownFormat(t *testing.T) {
	_, err := EncodeLayout(sampleEntries, "xml")
	assert.Error(t, err)
}

func TestRenderPlan(t *testing.T) {
	t.Run("writes_and_skips", func(t *testing.T) {
		out, err := RenderPlan(types.FlashPlan{
			Writes:  []types.ResolvedWrite{{Partition: "app_0", Offset: 0x10000, Source: "build/app_debug.bin"}},
			Skipped: []string{"phy_init"},
		})
		require.NoError(t, err)
		assert.Contains(t, out, "0x10000")
		assert.Contains(t, out, "build/app_debug.bin")
		assert.Contains(t, out, "phy_init not in partition table, skipped")
	})

	t.Run("empty", func(t *testing.T) {
		out, err := RenderPlan(types.FlashPlan{Skipped: []string{"data_0"}})
		require.NoError(t, err)
		assert.Contains(t, out, "Nothing to flash")
		assert.Contains(t, out, "data_0")
	})
}

func TestRenderSteps(t *testing.T) {
	out := RenderSteps([]string{"idf.py build", "compose update image"}, "publish update image")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], DoneMark)
	assert.Contains(t, lines[1], "compose update image")
	assert.Contains(t, lines[2], FailedMark)

	assert.Empty(t, RenderSteps(nil, ""))
}

func TestRenderHeader(t *testing.T) {
	out := RenderHeader(&update.Header{ModuleType: "SMARTFIT", AppSize: 900000, DataSize: 200000, DataSHA256: "ab12"})
	assert.Contains(t, out, "SMARTFIT")
	assert.Contains(t, out, "900000 bytes")
	assert.Contains(t, out, "ab12")
}
