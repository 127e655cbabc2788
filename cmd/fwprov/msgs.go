package fwprov

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Build, encrypt, package and flash ESP32 firmware"
	MsgBuildShort      = "Build firmware artifacts"
	MsgFlashShort      = "Write artifacts to the device"
	MsgReadShort       = "Read a partition back from the device"
	MsgPrepareShort    = "Provision a chip or configure the project"
	MsgDebugShort      = "Attach a serial monitor or OpenOCD"
	MsgPublishShort    = "Upload the update image to the artifact store"
	MsgInspectShort    = "Verify an update image and print its header"
	MsgPartitionsShort = "Print the resolved partition layout"
	MsgConfigShort     = "Print the resolved configuration"
	MsgTopicsShort     = "Display available documentation topics"
	MsgTopicsLong      = "Display a list of all available help topics that provide additional documentation beyond command help."
	MsgCompletionShort = "Generate shell completion script"

	MsgBuildLong = `build runs one of the build pipelines for the current target.

  app         compile the application (encrypted for release)
  data        generate the SPIFFS image from webfrontend
  update      compile app and data and compose build/update.bin
  clean       idf.py clean
  fullclean   idf.py fullclean`
	MsgFlashLong = `flash writes the artifacts of a method to the device on flash_port.

  app      bootloader, partition table, otadata, phy_init and app
  data     the SPIFFS image into the data partition
  update   everything above in one write
  erase    erase the whole chip

Entries missing from the partition table are skipped with a warning.`
	MsgDebugLong = `debug attaches to a running device.

  monitor   idf.py monitor on flash_port
  openocd   openocd with openocd_config`
	MsgInspectLong = `inspect parses the header of an update image, checks the payload
length and the data digest and prints what it found.`

	// Status messages
	MsgDryRunNotice = "DRY RUN - external tools were not run"
	MsgVersion      = "fwprov version %s (commit %s, built %s)\n"

	// Error messages
	MsgErrNoCommand  = "no command specified"
	MsgErrOutput     = "invalid --output value"
	MsgErrFormat     = "invalid --format value"
	MsgErrNeedMethod = "%s needs a method (one of %s)"
	MsgErrNeedTarget = "read needs a partition name"

	// Flag descriptions
	MsgFlagVerbose    = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun     = "Log external tool invocations instead of running them"
	MsgFlagYes        = "Approve secure provisioning without prompting"
	MsgFlagProjectDir = "Project directory (default: current directory)"
	MsgFlagLogUID     = "Tag every log line with a per-invocation id"
	MsgFlagOutput     = "Output format: auto, term, text or json"
	MsgFlagFormat     = "Layout format: table, yaml or toml"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/usage-template.txt
	MsgUsageTemplate string

	//go:embed msgs/build-example.txt
	msgBuildExampleRaw string
	MsgBuildExample    = strings.TrimRight(msgBuildExampleRaw, "\n")

	//go:embed msgs/flash-example.txt
	msgFlashExampleRaw string
	MsgFlashExample    = strings.TrimRight(msgFlashExampleRaw, "\n")

	//go:embed msgs/prepare-long.txt
	msgPrepareLongRaw string
	MsgPrepareLong    = strings.TrimSpace(msgPrepareLongRaw)

	//go:embed msgs/read-long.txt
	msgReadLongRaw string
	MsgReadLong    = strings.TrimSpace(msgReadLongRaw)

	//go:embed msgs/publish-long.txt
	msgPublishLongRaw string
	MsgPublishLong    = strings.TrimSpace(msgPublishLongRaw)

	//go:embed msgs/partitions-long.txt
	msgPartitionsLongRaw string
	MsgPartitionsLong    = strings.TrimSpace(msgPartitionsLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)
)
