package flash

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/partition"
	"github.com/arthur-debert/fwprov/pkg/testutil"
	"github.com/arthur-debert/fwprov/pkg/toolchain"
	"github.com/arthur-debert/fwprov/pkg/toolchain/toolchaintest"
	"github.com/arthur-debert/fwprov/pkg/types"
)

// captureLogs redirects the global logger for the duration of the test
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func standardLayout(t *testing.T, variant types.Variant) (*testutil.TestProject, *partition.Layout) {
	t.Helper()
	p := testutil.NewStandardProject(t)
	l, err := partition.Load(p.Dir, variant)
	require.NoError(t, err)
	return p, l
}

func testTools(dir string) *toolchain.Tools {
	return &toolchain.Tools{
		Python:     "python",
		EspToolDir: "/opt/esptool",
		Chip:       "esp32s3",
		Port:       "/dev/ttyUSB0",
		Baud:       921600,
		Dir:        dir,
	}
}

func TestResolveSkipsUnknownOnce(t *testing.T) {
	logs := captureLogs(t)
	_, layout := standardLayout(t, types.VariantDebug)

	plan, err := Resolve(layout, []types.FlashEntry{
		{Partition: "app_0", Source: "a.bin"},
		{Partition: "app_9", Source: "x.bin"},
		{Partition: "nvs", Source: "n.bin"},
	})
	require.NoError(t, err)

	require.Len(t, plan.Writes, 2)
	assert.Equal(t, "app_0", plan.Writes[0].Partition)
	assert.Equal(t, uint32(0x10000), plan.Writes[0].Offset)
	assert.Equal(t, "nvs", plan.Writes[1].Partition)
	assert.Equal(t, uint32(0x9000), plan.Writes[1].Offset)
	assert.Equal(t, []string{"app_9"}, plan.Skipped)

	assert.Equal(t, 1, strings.Count(logs.String(), "Partition not in table, skipping"))
	assert.Contains(t, logs.String(), `"partition":"app_9"`)
}

func TestWriteDebugAppSet(t *testing.T) {
	p, layout := standardLayout(t, types.VariantDebug)
	for _, e := range AppSet(types.VariantDebug, p.Path("build")) {
		testutil.CreateBytes(t, "/", e.Source, []byte("x"))
	}
	rec := &toolchaintest.Recorder{}

	plan, err := NewFlasher(layout, testTools(p.Dir), rec).
		Write(context.Background(), AppSet(types.VariantDebug, p.Path("build")))
	require.NoError(t, err)
	assert.Empty(t, plan.Skipped)

	require.Len(t, rec.Calls, 1, "one batched write")
	args := rec.Calls[0].Args
	pairs := args[len(args)-10:]
	assert.Equal(t, []string{
		"0x0", p.Path("build/bootloader/bootloader.bin"),
		"0x8000", p.Path("build/partition_table/partition-table.bin"),
		"0xd000", p.Path("build/ota_data_initial.bin"),
		"0xf000", p.Path("build/phy_init_data.bin"),
		"0x10000", p.Path("build/app_debug.bin"),
	}, pairs)
}

func TestWriteSkipsPartitionsMissingFromLayout(t *testing.T) {
	table := "nvs,data,nvs,0x9000,0x6000,\napp_0,app,ota_0,0x10000,0x100000\n"
	p := testutil.NewTestProject(t).WithLayout(t, "release", table, testutil.StandardDefaults)
	layout, err := partition.Load(p.Dir, types.VariantRelease)
	require.NoError(t, err)

	entries := UpdateSet(types.VariantRelease, p.Path("build"))
	for _, e := range entries {
		testutil.CreateBytes(t, "/", e.Source, []byte("x"))
	}
	rec := &toolchaintest.Recorder{}

	plan, err := NewFlasher(layout, testTools(p.Dir), rec).Write(context.Background(), entries)
	require.NoError(t, err)

	assert.Equal(t, []string{"otadata", "phy_init", "data_0"}, plan.Skipped)
	names := make([]string, len(plan.Writes))
	for i, w := range plan.Writes {
		names[i] = w.Partition
	}
	assert.Equal(t, []string{"bootloader", "partition-table", "app_0"}, names)
	assert.Contains(t, rec.Calls[0].Args, p.Path("build/app_release.bin"))
}

func TestWriteEmptyPlanDoesNotTouchDevice(t *testing.T) {
	p := testutil.NewTestProject(t).WithLayout(t, "debug", "nvs,data,nvs,0x9000,0x6000\n", testutil.StandardDefaults)
	layout, err := partition.Load(p.Dir, types.VariantDebug)
	require.NoError(t, err)

	runner := &toolchaintest.MockRunner{}
	plan, err := NewFlasher(layout, testTools(p.Dir), runner).
		Write(context.Background(), DataSet(p.Path("build")))
	require.NoError(t, err)
	assert.True(t, plan.Empty())
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestWriteMissingSource(t *testing.T) {
	p, layout := standardLayout(t, types.VariantDebug)
	p.AddArtifact(t, "build/bootloader/bootloader.bin", 16, 1)
	rec := &toolchaintest.Recorder{}

	_, err := NewFlasher(layout, testTools(p.Dir), rec).
		Write(context.Background(), AppSet(types.VariantDebug, p.Path("build")))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSourceMissing))
	assert.Equal(t, errors.ExitSourceMissing, errors.ExitCode(err))
	assert.Len(t, errors.GetErrorDetails(err)["paths"], 4)
	assert.Empty(t, rec.Calls)
}

func TestWritePropagatesToolFailure(t *testing.T) {
	p, layout := standardLayout(t, types.VariantDebug)
	p.AddArtifact(t, "build/data.bin", 16, 1)

	runner := &toolchaintest.MockRunner{}
	runner.On("Run", mock.Anything, mock.MatchedBy(func(c toolchain.Command) bool {
		return c.Action == "write_flash"
	})).Return(errors.New(errors.ErrToolFailed, "esptool failed")).Once()

	_, err := NewFlasher(layout, testTools(p.Dir), runner).
		Write(context.Background(), DataSet(p.Path("build")))
	assert.True(t, errors.IsErrorCode(err, errors.ErrToolFailed))
	runner.AssertExpectations(t)
}

func TestRead(t *testing.T) {
	p, layout := standardLayout(t, types.VariantDebug)

	t.Run("known", func(t *testing.T) {
		rec := &toolchaintest.Recorder{}
		out, err := NewFlasher(layout, testTools(p.Dir), rec).Read(context.Background(), "data_0", p.Dir)
		require.NoError(t, err)
		assert.Equal(t, p.Path("read_data_0.bin"), out)

		require.Len(t, rec.Calls, 1)
		args := rec.Calls[0].Args
		assert.Equal(t, []string{"read_flash", "0x150000", "0x40000", out}, args[len(args)-4:])
	})

	t.Run("unknown_is_noop", func(t *testing.T) {
		logs := captureLogs(t)
		rec := &toolchaintest.Recorder{}
		out, err := NewFlasher(layout, testTools(p.Dir), rec).Read(context.Background(), "app_9", p.Dir)
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Empty(t, rec.Calls)
		assert.Contains(t, logs.String(), "nothing to read")
	})

	t.Run("synthetic_has_no_size", func(t *testing.T) {
		rec := &toolchaintest.Recorder{}
		_, err := NewFlasher(layout, testTools(p.Dir), rec).Read(context.Background(), types.PartitionBootloader, p.Dir)
		assert.True(t, errors.IsErrorCode(err, errors.ErrPartitionSize))
		assert.Empty(t, rec.Calls)
	})
}

func TestErase(t *testing.T) {
	_, layout := standardLayout(t, types.VariantDebug)
	rec := &toolchaintest.Recorder{}
	require.NoError(t, NewFlasher(layout, testTools(""), rec).Erase(context.Background()))
	assert.Equal(t, []string{"erase_flash"}, rec.Actions())
}

func TestSetFor(t *testing.T) {
	set, ok := SetFor(types.MethodUpdate, types.VariantDebug, "b")
	require.True(t, ok)
	require.Len(t, set, 6)
	assert.Equal(t, types.PartitionData, set[5].Partition)

	_, ok = SetFor(types.MethodErase, types.VariantDebug, "b")
	assert.False(t, ok)
}
