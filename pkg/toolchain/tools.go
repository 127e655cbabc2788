package toolchain

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arthur-debert/fwprov/pkg/config"
	"github.com/arthur-debert/fwprov/pkg/types"
)

// Fixed write_flash options for the supported modules
var writeFlashOptions = []string{
	"--flash_mode", "dio",
	"--flash_freq", "80m",
	"--flash_size", "detect",
	"--force",
}

// Tools knows where the external programs live and which device they
// talk to. Builders return Commands; nothing runs until a Runner gets them.
type Tools struct {
	Python     string
	IDFScript  string
	EspToolDir string
	EspIdfPath string
	OpenOCDBin string

	Chip string
	Port string
	Baud int

	// Dir is the working directory for every command
	Dir string
}

// FromConfig builds Tools from a resolved configuration
func FromConfig(cfg *config.BuildConfig) *Tools {
	return &Tools{
		Python:     cfg.Python,
		IDFScript:  cfg.IDF,
		EspToolDir: cfg.Path(cfg.EspToolDir),
		EspIdfPath: cfg.Path(cfg.EspIdfPath),
		OpenOCDBin: cfg.OpenOCD,
		Chip:       cfg.Chip,
		Port:       cfg.FlashPort,
		Baud:       cfg.Baudrate,
		Dir:        cfg.ProjectDir,
	}
}

// IDF runs idf.py with the given arguments. The last argument is taken
// as the action.
func (t *Tools) IDF(args ...string) Command {
	action := ""
	if len(args) > 0 {
		action = args[len(args)-1]
	}
	return Command{
		Name:        t.IDFScript,
		Args:        args,
		Dir:         t.Dir,
		Action:      action,
		Description: "idf.py " + strings.Join(args, " "),
	}
}

// SetTarget selects the chip for the next build
func (t *Tools) SetTarget() Command {
	c := t.IDF("set-target", t.Chip)
	c.Action = "set-target"
	return c
}

// Menuconfig opens the interactive configurator
func (t *Tools) Menuconfig() Command {
	c := t.IDF("menuconfig")
	c.Interactive = true
	return c
}

// Monitor attaches the serial monitor to the configured port
func (t *Tools) Monitor() Command {
	c := t.IDF("-p", t.Port, "monitor")
	c.Interactive = true
	return c
}

func (t *Tools) python(script string, action string, description string, args ...string) Command {
	return Command{
		Name:        t.Python,
		Args:        append([]string{script}, args...),
		Dir:         t.Dir,
		Action:      action,
		Description: description,
	}
}

func (t *Tools) esptool(action string, args ...string) Command {
	base := []string{
		"--chip", t.Chip,
		"--port", t.Port,
		"--baud", strconv.Itoa(t.Baud),
	}
	return t.python(filepath.Join(t.EspToolDir, "esptool.py"), action, "esptool.py "+action,
		append(base, args...)...)
}

// WriteFlash writes every resolved entry in a single esptool session
func (t *Tools) WriteFlash(writes []types.ResolvedWrite) Command {
	args := []string{"--before", "default_reset", "--after", "hard_reset", "write_flash", "-z"}
	args = append(args, writeFlashOptions...)
	for _, w := range writes {
		args = append(args, types.FormatHex(w.Offset), w.Source)
	}
	return t.esptool("write_flash", args...)
}

// ReadFlash dumps size bytes at offset into out
func (t *Tools) ReadFlash(offset, size uint32, out string) Command {
	return t.esptool("read_flash", "read_flash", types.FormatHex(offset), types.FormatHex(size), out)
}

// EraseFlash erases the whole chip
func (t *Tools) EraseFlash() Command {
	return t.esptool("erase_flash", "erase_flash")
}

func (t *Tools) espefuse(action string, args ...string) Command {
	base := []string{"--do-not-confirm", "--port", t.Port, action}
	return t.python(filepath.Join(t.EspToolDir, "espefuse.py"), action, "espefuse.py "+action,
		append(base, args...)...)
}

// BurnEfuse burns a fuse. fuse may carry a value, as in "SPI_BOOT_CRYPT_CNT 1".
func (t *Tools) BurnEfuse(fuse string) Command {
	return t.espefuse("burn_efuse", strings.Fields(fuse)...)
}

// WriteProtectEfuse write-protects a fuse by name
func (t *Tools) WriteProtectEfuse(name string) Command {
	return t.espefuse("write_protect_efuse", name)
}

// BurnKey burns keyfile into a key block for the given purpose
func (t *Tools) BurnKey(block, keyfile, purpose string) Command {
	return t.espefuse("burn_key", block, keyfile, purpose)
}

// EncryptFlashData encrypts src into dst with espsecure.py, using addr as
// the XTS tweak.
func (t *Tools) EncryptFlashData(keyfile string, addr uint32, src, dst string) Command {
	return t.python(filepath.Join(t.EspToolDir, "espsecure.py"), "encrypt_flash_data", "espsecure.py encrypt_flash_data",
		"encrypt_flash_data", "--aes_xts",
		"--keyfile", keyfile,
		"--address", types.FormatHex(addr),
		"-o", dst,
		src)
}

// SpiffsGen builds a SPIFFS image of size bytes from srcDir
func (t *Tools) SpiffsGen(size uint32, srcDir, dst string) Command {
	script := filepath.Join(t.EspIdfPath, "components", "spiffs", "spiffsgen.py")
	return t.python(script, "spiffsgen", "spiffsgen.py",
		"--obj-name-len", "60",
		types.FormatHex(size), srcDir, dst)
}

// OpenOCD starts the debug server with the given board configuration
func (t *Tools) OpenOCD(cfgFile string) Command {
	return Command{
		Name:        t.OpenOCDBin,
		Args:        []string{"-f", cfgFile},
		Dir:         t.Dir,
		Interactive: true,
		Action:      "openocd",
		Description: fmt.Sprintf("openocd -f %s", cfgFile),
	}
}
