package types

// Build artifacts, relative to the build directory
const (
	ArtifactBootloader        = "bootloader/bootloader.bin"
	ArtifactBootloaderEnc     = "bootloader/bootloader_en.bin"
	ArtifactPartitionTable    = "partition_table/partition-table.bin"
	ArtifactPartitionTableEnc = "partition_table/partition-table_en.bin"
	ArtifactOTAData           = "ota_data_initial.bin"
	ArtifactPhyInit           = "phy_init_data.bin"
	ArtifactApp               = "app.bin"
	ArtifactAppDebug          = "app_debug.bin"
	ArtifactAppRelease        = "app_release.bin"
	ArtifactData              = "data.bin"
	ArtifactUpdate            = "update.bin"
)

// EncryptionJob pairs a partition with the plaintext and encrypted
// artifacts produced for it in a release build
type EncryptionJob struct {
	Partition string
	Plain     string
	Encrypted string
}

// ReleaseEncryptionJobs lists what a release build encrypts, in order
var ReleaseEncryptionJobs = []EncryptionJob{
	{PartitionBootloader, ArtifactBootloader, ArtifactBootloaderEnc},
	{PartitionTable, ArtifactPartitionTable, ArtifactPartitionTableEnc},
	{PartitionApp, ArtifactApp, ArtifactAppRelease},
}
