package config

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/types"
)

// Encryption backends
const (
	BackendNative    = "native"
	BackendEspsecure = "espsecure"
)

// BuildConfig is the resolved configuration for one invocation
type BuildConfig struct {
	Target types.Variant `koanf:"target" toml:"target"`
	Chip   string        `koanf:"chip" toml:"chip"`

	FlashPort string `koanf:"flash_port" toml:"flash_port"`
	Baudrate  int    `koanf:"baudrate" toml:"baudrate"`

	// Toolchain locations
	Python     string `koanf:"python" toml:"python"`
	IDF        string `koanf:"idf" toml:"idf"`
	EspToolDir string `koanf:"esp_tool_dir" toml:"esp_tool_dir"`
	EspIdfPath string `koanf:"esp_idf_path" toml:"esp_idf_path"`
	OpenOCD    string `koanf:"openocd" toml:"openocd"`

	OpenOCDConfig string `koanf:"openocd_config" toml:"openocd_config,omitempty"`

	// Key material
	FlashEncryptionKey string `koanf:"flash_encryption_key" toml:"flash_encryption_key,omitempty"`
	SigningKey         string `koanf:"signing_key" toml:"signing_key,omitempty"`
	EncryptionBackend  string `koanf:"encryption_backend" toml:"encryption_backend"`

	// Project layout
	BuildDir       string `koanf:"build_dir" toml:"build_dir"`
	WebFrontend    string `koanf:"webfrontend" toml:"webfrontend,omitempty"`
	DefinitionsHpp string `koanf:"definitionshpp" toml:"definitionshpp"`
	ModuleType     string `koanf:"module_type" toml:"module_type,omitempty"`

	UpdateStore string `koanf:"update_store" toml:"update_store,omitempty"`

	// ProjectDir is where relative paths are anchored. Not read from any
	// source; set by Load.
	ProjectDir string `koanf:"-" toml:"-"`

	// Extra holds keys no field claims
	Extra map[string]string `koanf:"-" toml:"extra,omitempty"`
}

// knownKeys lists the koanf keys BuildConfig consumes
var knownKeys = map[string]bool{
	"target": true, "chip": true, "flash_port": true, "baudrate": true,
	"python": true, "idf": true, "esp_tool_dir": true, "esp_idf_path": true,
	"openocd": true, "openocd_config": true, "flash_encryption_key": true,
	"signing_key": true, "encryption_backend": true, "build_dir": true,
	"webfrontend": true, "definitionshpp": true, "module_type": true,
	"update_store": true,
}

// Validate checks fields that every command relies on and normalizes
// the target spelling.
func (c *BuildConfig) Validate() error {
	variant, err := types.ParseVariant(string(c.Target))
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "invalid target").
			WithDetail("key", "target")
	}
	c.Target = variant
	if strings.TrimSpace(c.Chip) == "" {
		return errors.New(errors.ErrConfigValid, "chip must not be empty").
			WithDetail("key", "chip")
	}
	if c.Baudrate <= 0 {
		return errors.Newf(errors.ErrConfigValid, "baudrate must be positive, got %d", c.Baudrate).
			WithDetail("key", "baudrate")
	}
	switch c.EncryptionBackend {
	case BackendNative, BackendEspsecure:
	default:
		return errors.Newf(errors.ErrConfigValid, "unknown encryption_backend %q", c.EncryptionBackend).
			WithDetail("key", "encryption_backend")
	}
	if c.BuildDir == "" {
		return errors.New(errors.ErrConfigValid, "build_dir must not be empty").
			WithDetail("key", "build_dir")
	}
	return nil
}

// Require fails with a ConfigError naming every key in keys that is unset.
// Commands call it before touching the device.
func (c *BuildConfig) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if c.Get(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return errors.Newf(errors.ErrConfigValid, "missing required configuration: %s", strings.Join(missing, ", ")).
		WithDetail("keys", missing)
}

// Get returns the string value of a key, typed or extra
func (c *BuildConfig) Get(key string) string {
	switch key {
	case "target":
		return string(c.Target)
	case "chip":
		return c.Chip
	case "flash_port":
		return c.FlashPort
	case "baudrate":
		if c.Baudrate == 0 {
			return ""
		}
		return strconv.Itoa(c.Baudrate)
	case "python":
		return c.Python
	case "idf":
		return c.IDF
	case "esp_tool_dir":
		return c.EspToolDir
	case "esp_idf_path":
		return c.EspIdfPath
	case "openocd":
		return c.OpenOCD
	case "openocd_config":
		return c.OpenOCDConfig
	case "flash_encryption_key":
		return c.FlashEncryptionKey
	case "signing_key":
		return c.SigningKey
	case "encryption_backend":
		return c.EncryptionBackend
	case "build_dir":
		return c.BuildDir
	case "webfrontend":
		return c.WebFrontend
	case "definitionshpp":
		return c.DefinitionsHpp
	case "module_type":
		return c.ModuleType
	case "update_store":
		return c.UpdateStore
	}
	return c.Extra[key]
}

// Path anchors p at the project directory unless it is already absolute
func (c *BuildConfig) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.ProjectDir == "" {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}

// BuildPath joins elements under the build directory, anchored at the project
func (c *BuildConfig) BuildPath(elem ...string) string {
	return c.Path(filepath.Join(append([]string{c.BuildDir}, elem...)...))
}
