package flash

import (
	"path/filepath"

	"github.com/arthur-debert/fwprov/pkg/types"
)

// AppSet is everything needed to boot the application, for a variant.
// Release builds write the encrypted bootloader, table and application.
func AppSet(v types.Variant, buildDir string) []types.FlashEntry {
	bootloader, table, app := types.ArtifactBootloader, types.ArtifactPartitionTable, types.ArtifactAppDebug
	if v.IsRelease() {
		bootloader, table, app = types.ArtifactBootloaderEnc, types.ArtifactPartitionTableEnc, types.ArtifactAppRelease
	}
	return []types.FlashEntry{
		{Partition: types.PartitionBootloader, Source: filepath.Join(buildDir, bootloader)},
		{Partition: types.PartitionTable, Source: filepath.Join(buildDir, table)},
		{Partition: types.PartitionOTAData, Source: filepath.Join(buildDir, types.ArtifactOTAData)},
		{Partition: types.PartitionPhyInit, Source: filepath.Join(buildDir, types.ArtifactPhyInit)},
		{Partition: types.PartitionApp, Source: filepath.Join(buildDir, app)},
	}
}

// DataSet writes the filesystem image
func DataSet(buildDir string) []types.FlashEntry {
	return []types.FlashEntry{
		{Partition: types.PartitionData, Source: filepath.Join(buildDir, types.ArtifactData)},
	}
}

// UpdateSet is AppSet followed by DataSet
func UpdateSet(v types.Variant, buildDir string) []types.FlashEntry {
	return append(AppSet(v, buildDir), DataSet(buildDir)...)
}

// SetFor returns the file set for a flash method
func SetFor(method types.Method, v types.Variant, buildDir string) ([]types.FlashEntry, bool) {
	switch method {
	case types.MethodApp:
		return AppSet(v, buildDir), true
	case types.MethodData:
		return DataSet(buildDir), true
	case types.MethodUpdate:
		return UpdateSet(v, buildDir), true
	}
	return nil, false
}
