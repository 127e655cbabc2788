package partition

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/testutil"
	"github.com/arthur-debert/fwprov/pkg/types"
)

func TestLoadStandardLayout(t *testing.T) {
	p := testutil.NewStandardProject(t)

	l, err := Load(p.Dir, types.VariantDebug)
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"nvs", "otadata", "phy_init", "app_0", "data_0", "bootloader", "partition-table"},
		l.Names())

	tests := []struct {
		name    string
		offset  uint32
		size    uint32
		typ     string
		subtype string
	}{
		{"nvs", 0x9000, 0x4000, "data", "nvs"},
		{"otadata", 0xd000, 0x2000, "data", "ota"},
		{"app_0", 0x10000, 0x140000, "app", "ota_0"},
		{"data_0", 0x150000, 0x40000, "data", "spiffs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := l.Entry(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.offset, e.Offset)
			assert.Equal(t, tt.size, e.Size)
			assert.Equal(t, tt.typ, e.Type)
			assert.Equal(t, tt.subtype, e.SubType)
			assert.False(t, e.Synthetic)
		})
	}

	off, err := l.Offset("partition-table")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x8000), off)

	off, err = l.Offset("bootloader")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0), off)
}

func TestResolveIsDeterministic(t *testing.T) {
	p := testutil.NewStandardProject(t)

	first, err := Load(p.Dir, types.VariantRelease)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Load(p.Dir, types.VariantRelease)
		require.NoError(t, err)
		assert.Equal(t, first.Entries(), again.Entries())
	}
}

func TestMissingPartitionTableOffset(t *testing.T) {
	p := testutil.NewTestProject(t).
		WithLayout(t, "debug", testutil.StandardTable, "CONFIG_BOOTLOADER_OFFSET_IN_FLASH=0x1000\n")
	before := testutil.ListFiles(t, p.Dir)

	_, err := Load(p.Dir, types.VariantDebug)

	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
	assert.Equal(t, KeyPartitionTableOffset, errors.GetErrorDetails(err)["key"])
	assert.Equal(t, before, testutil.ListFiles(t, p.Dir), "resolution must not write files")
}

func TestBootloaderOffsetDefaults(t *testing.T) {
	p := testutil.NewTestProject(t).
		WithLayout(t, "debug", testutil.StandardTable, "# no bootloader key\nCONFIG_PARTITION_TABLE_OFFSET=0x8000\n")

	l, err := Load(p.Dir, types.VariantDebug)
	require.NoError(t, err)

	off, err := l.Offset(types.PartitionBootloader)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1000), off)
}

func TestUnknownAndSyntheticAccessors(t *testing.T) {
	p := testutil.NewStandardProject(t)
	l, err := Load(p.Dir, types.VariantDebug)
	require.NoError(t, err)

	_, err = l.Offset("app_9")
	assert.True(t, IsUnknown(err))
	_, err = l.Size("app_9")
	assert.True(t, IsUnknown(err))
	_, err = l.Type("app_9")
	assert.True(t, IsUnknown(err))
	assert.False(t, l.Has("app_9"))

	_, err = l.Size(types.PartitionTable)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPartitionSize))

	typ, err := l.Type(types.PartitionBootloader)
	require.NoError(t, err)
	assert.Equal(t, "bootloader", typ)
}

func TestParseTableArity(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   bool
		wantFlags string
		wantName  string
	}{
		{"six_columns", "app_0, app, ota_0, 0x10000, 0x140000, encrypted\n", false, "encrypted", "app_0"},
		{"six_columns_empty_flags", "nvs,data,nvs,0x9000,0x4000,\n", false, "", "nvs"},
		{"five_columns", "data_0,data,spiffs,0x150000,0x40000\n", false, "", "data_0"},
		{"name_keeps_spaces", " app 0 ,app,ota_0,0x10000,0x1000\n", false, "", " app 0 "},
		{"four_columns", "a,b,c,0x1000\n", true, "", ""},
		{"seven_columns", "a,app,c,0x1000,0x1000,x,y\n", true, "", ""},
		{"bad_offset", "a,app,c,zz,0x1000\n", true, "", ""},
		{"missing_size", "a,app,c,0x1000,\n", true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ParseTable(strings.NewReader("# header\n\n"+tt.input), "t.csv")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, errors.ErrPartitionInvalid))
				assert.Equal(t, 3, errors.GetErrorDetails(err)["line"])
				return
			}
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.wantName, rows[0].Name)
			assert.Equal(t, tt.wantFlags, rows[0].Flags)
		})
	}
}

func TestCellWhitespaceIsStripped(t *testing.T) {
	rows, err := ParseTable(strings.NewReader("app_0, a p p , ota _0, 0x1 0000, 0x14 0000, enc rypted\n"), "t.csv")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "app", rows[0].Type)
	assert.Equal(t, "ota_0", rows[0].SubType)
	assert.Equal(t, uint32(0x10000), rows[0].Offset)
	assert.Equal(t, uint32(0x140000), rows[0].Size)
	assert.Equal(t, "encrypted", rows[0].Flags)
}

func TestAutoPlacementAndSuffixes(t *testing.T) {
	table := `nvs,data,nvs,,24K
phy_init,data,phy,,4K
factory,app,factory,,1M
storage,data,spiffs,,0x10000
`
	p := testutil.NewTestProject(t).
		WithLayout(t, "debug", table, "CONFIG_PARTITION_TABLE_OFFSET=0x8000\n")

	l, err := Load(p.Dir, types.VariantDebug)
	require.NoError(t, err)

	want := map[string][2]uint32{
		"nvs":      {0x9000, 0x6000},
		"phy_init": {0xf000, 0x1000},
		"factory":  {0x10000, 0x100000},
		"storage":  {0x110000, 0x10000},
	}
	for name, w := range want {
		e, err := l.Entry(name)
		require.NoError(t, err)
		assert.Equal(t, w[0], e.Offset, name)
		assert.Equal(t, w[1], e.Size, name)
	}
}

func TestLayoutValidation(t *testing.T) {
	tests := []struct {
		name  string
		table string
	}{
		{"duplicate_name", "a,data,nvs,0x9000,0x1000\na,data,nvs,0xa000,0x1000\n"},
		{"decreasing_offset", "a,data,nvs,0xa000,0x1000\nb,data,nvs,0x9000,0x1000\n"},
		{"overlap", "a,data,nvs,0x9000,0x2000\nb,data,nvs,0xa000,0x1000\n"},
		{"shadows_synthetic", "bootloader,data,nvs,0x9000,0x1000\n"},
		{"ends_past_address_space", "a,data,nvs,0xFFFF0000,0x20000\n"},
		{"overlap_near_top", "a,data,nvs,0xFFFF0000,0x10000\nb,data,nvs,0xFFFF8000,0x1000\n"},
		{"auto_placed_past_address_space", "a,data,nvs,0xFFFFF000,0x1000\nb,app,ota_0,,0x1000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testutil.NewTestProject(t).
				WithLayout(t, "debug", tt.table, testutil.StandardDefaults)
			_, err := Load(p.Dir, types.VariantDebug)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrPartitionInvalid))
			assert.Equal(t, errors.ExitConfig, errors.ExitCode(err))
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"0x1000", 0x1000, false},
		{"4096", 4096, false},
		{"64K", 64 * 1024, false},
		{"2M", 2 * 1024 * 1024, false},
		{"0x10k", 16 * 1024, false},
		{`"0x8000"`, 0x8000, false},
		{"", 0, true},
		{"abc", 0, true},
		{"8192M", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNumber(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
