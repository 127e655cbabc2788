package partition

import (
	"bufio"
	"os"
	"strings"

	"github.com/arthur-debert/fwprov/pkg/errors"
)

// sdkconfig keys that place the synthetic entries
const (
	KeyBootloaderOffset     = "CONFIG_BOOTLOADER_OFFSET_IN_FLASH"
	KeyPartitionTableOffset = "CONFIG_PARTITION_TABLE_OFFSET"

	DefaultBootloaderOffset uint32 = 0x1000
)

// Defaults holds the offsets read from sdkconfig_<target>.defaults
type Defaults struct {
	BootloaderOffset     uint32
	PartitionTableOffset uint32

	// BootloaderDefaulted is set when the file did not name a bootloader
	// offset and DefaultBootloaderOffset was used.
	BootloaderDefaulted bool
}

// ReadDefaults parses an sdkconfig defaults file. A missing partition
// table offset is a ConfigError; a missing bootloader offset falls back
// to DefaultBootloaderOffset.
func ReadDefaults(path string) (*Defaults, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot open defaults file %s", path)
	}
	defer f.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read defaults file %s", path)
	}

	d := &Defaults{}

	raw, ok := values[KeyPartitionTableOffset]
	if !ok {
		return nil, errors.Newf(errors.ErrConfigValid, "%s not found in %s", KeyPartitionTableOffset, path).
			WithDetail("key", KeyPartitionTableOffset).
			WithDetail("path", path)
	}
	if d.PartitionTableOffset, err = ParseNumber(raw); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigValid, "bad %s in %s", KeyPartitionTableOffset, path).
			WithDetail("key", KeyPartitionTableOffset)
	}

	raw, ok = values[KeyBootloaderOffset]
	if !ok {
		d.BootloaderOffset = DefaultBootloaderOffset
		d.BootloaderDefaulted = true
		return d, nil
	}
	if d.BootloaderOffset, err = ParseNumber(raw); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigValid, "bad %s in %s", KeyBootloaderOffset, path).
			WithDetail("key", KeyBootloaderOffset)
	}
	return d, nil
}
