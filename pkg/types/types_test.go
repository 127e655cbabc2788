// pkg/types/types_test.go
// TEST TYPE: Unit Tests
// DEPENDENCIES: None
// PURPOSE: Test the pipeline vocabulary and partition values

package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/fwprov/pkg/types"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    types.Variant
		wantErr bool
	}{
		{"debug", types.VariantDebug, false},
		{"Release", types.VariantRelease, false},
		{" RELEASE ", types.VariantRelease, false},
		{"prod", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := types.ParseVariant(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVariantFiles(t *testing.T) {
	assert.Equal(t, "partitions_release.csv", types.VariantRelease.PartitionTableFile())
	assert.Equal(t, "sdkconfig_debug.defaults", types.VariantDebug.DefaultsFile())
	assert.True(t, types.VariantRelease.IsRelease())
	assert.False(t, types.VariantDebug.IsRelease())
}

func TestPartitionEntry(t *testing.T) {
	e := types.PartitionEntry{Name: "app_0", Offset: 0x10000, Size: 0x140000, SizeKnown: true}
	assert.Equal(t, uint64(0x150000), e.End())

	top := types.PartitionEntry{Offset: 0xFFFF0000, Size: 0x10000, SizeKnown: true}
	assert.Equal(t, uint64(1)<<32, top.End())
	assert.Equal(t, "0x100000000", types.FormatEnd(top.End()))
	assert.Equal(t, "0x10000", e.HexOffset())
	assert.Equal(t, "0x0", types.FormatHex(0))
}

func TestFlashPlanEmpty(t *testing.T) {
	assert.True(t, types.FlashPlan{Skipped: []string{"phy_init"}}.Empty())
	assert.False(t, types.FlashPlan{Writes: []types.ResolvedWrite{{Partition: "app_0"}}}.Empty())
}

func TestReleaseEncryptionJobs(t *testing.T) {
	var parts []string
	for _, j := range types.ReleaseEncryptionJobs {
		parts = append(parts, j.Partition)
	}
	assert.Equal(t, []string{"bootloader", "partition-table", "app_0"}, parts)
}
