package types

import (
	"fmt"
	"strings"
)

// Command is the top-level pipeline verb
type Command string

const (
	CommandBuild   Command = "build"
	CommandFlash   Command = "flash"
	CommandPrepare Command = "prepare"
	CommandRead    Command = "read"
	CommandDebug   Command = "debug"
	CommandPublish Command = "publish"
)

// Method selects what a command acts on
type Method string

const (
	MethodApp         Method = "app"
	MethodData        Method = "data"
	MethodUpdate      Method = "update"
	MethodClean       Method = "clean"
	MethodFullClean   Method = "fullclean"
	MethodErase       Method = "erase"
	MethodEncryptChip Method = "encrypt-chip"
	MethodMenuconfig  Method = "menuconfig"
	MethodMonitor     Method = "monitor"
	MethodOpenOCD     Method = "openocd"
)

// Variant is the build flavour. It also picks the target-specific
// partition table and sdkconfig defaults.
type Variant string

const (
	VariantDebug   Variant = "debug"
	VariantRelease Variant = "release"
)

// ParseVariant accepts "debug" or "release", case-insensitively.
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantDebug:
		return VariantDebug, nil
	case VariantRelease:
		return VariantRelease, nil
	default:
		return "", fmt.Errorf("unknown target %q (want debug or release)", s)
	}
}

// PartitionTableFile is the partition CSV for the variant
func (v Variant) PartitionTableFile() string {
	return fmt.Sprintf("partitions_%s.csv", v)
}

// DefaultsFile is the sdkconfig defaults file for the variant
func (v Variant) DefaultsFile() string {
	return fmt.Sprintf("sdkconfig_%s.defaults", v)
}

// IsRelease reports whether the variant produces encrypted artifacts
func (v Variant) IsRelease() bool {
	return v == VariantRelease
}
