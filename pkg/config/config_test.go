package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/types"
)

const sampleProjectCSV = `# project wide settings
target,debug
chip,esp32s3
flash_port, /dev/ttyUSB0
baudrate,460800
esp_tool_dir, C:/Program Files/esptool
webfrontend,web/dist

flash_encryption_key,keys/flash_key.bin
custom_thing,some value
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseProjectCSV(t *testing.T) {
	t.Run("strips_spaces_from_values", func(t *testing.T) {
		m, err := ParseProjectCSV([]byte(sampleProjectCSV), "projectConfig.csv")
		require.NoError(t, err)

		assert.Equal(t, "/dev/ttyUSB0", m["flash_port"])
		assert.Equal(t, "C:/ProgramFiles/esptool", m["esp_tool_dir"])
		assert.Equal(t, "somevalue", m["custom_thing"])
		assert.NotContains(t, m, "# project wide settings")
	})

	t.Run("rejects_rows_without_comma", func(t *testing.T) {
		_, err := ParseProjectCSV([]byte("chip esp32\n"), "projectConfig.csv")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))
	})
}

func TestLoad(t *testing.T) {
	t.Run("defaults_only", func(t *testing.T) {
		dir := t.TempDir()

		cfg, err := Load(LoadOptions{ProjectDir: dir})
		require.NoError(t, err)

		assert.Equal(t, types.VariantDebug, cfg.Target)
		assert.Equal(t, "build", cfg.BuildDir)
		assert.Equal(t, BackendNative, cfg.EncryptionBackend)
		assert.Equal(t, dir, cfg.ProjectDir)
	})

	t.Run("yaml_file_overrides_toml", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, TOMLConfigFile, "chip = \"esp32c3\"\nbaudrate = 115200\n")
		writeFile(t, dir, YAMLConfigFile, "chip: esp32s2\nupdate_store: s3://fw/updates\n")

		cfg, err := Load(LoadOptions{ProjectDir: dir})
		require.NoError(t, err)

		assert.Equal(t, "esp32s2", cfg.Chip)
		assert.Equal(t, 115200, cfg.Baudrate)
		assert.Equal(t, "s3://fw/updates", cfg.UpdateStore)
	})

	t.Run("malformed_yaml_is_parse_error", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, YAMLConfigFile, "chip: [unterminated\n")

		_, err := Load(LoadOptions{ProjectDir: dir})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))
	})

	t.Run("later_sources_override_earlier", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, ProjectConfigFile, sampleProjectCSV)
		writeFile(t, dir, TOMLConfigFile, "chip = \"esp32c3\"\nflash_port = \"/dev/ttyACM0\"\n")
		t.Setenv("FWPROV_FLASH_PORT", "/dev/ttyS9")

		cfg, err := Load(LoadOptions{
			ProjectDir: dir,
			Overrides:  []string{"target=release", "not-an-override", "baudrate=115200"},
		})
		require.NoError(t, err)

		assert.Equal(t, types.VariantRelease, cfg.Target)
		assert.Equal(t, "/dev/ttyS9", cfg.FlashPort)
		assert.Equal(t, "esp32c3", cfg.Chip)
		assert.Equal(t, 115200, cfg.Baudrate)
		assert.Equal(t, "web/dist", cfg.WebFrontend)
		assert.Equal(t, "somevalue", cfg.Extra["custom_thing"])
	})

	t.Run("invalid_target_is_config_error", func(t *testing.T) {
		dir := t.TempDir()
		_, err := Load(LoadOptions{ProjectDir: dir, Overrides: []string{"target=staging"}})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
		assert.Equal(t, errors.ExitConfig, errors.ExitCode(err))
	})

	t.Run("non_numeric_baudrate_is_config_error", func(t *testing.T) {
		dir := t.TempDir()
		_, err := Load(LoadOptions{ProjectDir: dir, Overrides: []string{"baudrate=fast"}})
		require.Error(t, err)
		assert.Equal(t, errors.ExitConfig, errors.ExitCode(err))
	})
}

func TestParseOverrides(t *testing.T) {
	m, err := ParseOverrides([]string{"a=1", "b=x=y", "loose"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": "1", "b": "x=y"}, m)

	_, err = ParseOverrides([]string{"=oops"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse))
}

func TestRequire(t *testing.T) {
	cfg := &BuildConfig{Chip: "esp32", FlashPort: "/dev/ttyUSB0", Extra: map[string]string{"x": "1"}}

	assert.NoError(t, cfg.Require("chip", "flash_port", "x"))

	err := cfg.Require("signing_key", "chip", "flash_encryption_key")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
	assert.Equal(t, []string{"flash_encryption_key", "signing_key"}, errors.GetErrorDetails(err)["keys"])
}

func TestPaths(t *testing.T) {
	cfg := &BuildConfig{ProjectDir: "/proj", BuildDir: "build"}
	assert.Equal(t, filepath.Join("/proj", "build", "app.bin"), cfg.BuildPath("app.bin"))
	assert.Equal(t, "/abs/key.bin", cfg.Path("/abs/key.bin"))
	assert.Equal(t, filepath.Join("/proj", "keys", "k.bin"), cfg.Path("keys/k.bin"))
}

func TestDump(t *testing.T) {
	cfg := &BuildConfig{Target: types.VariantDebug, Chip: "esp32", Baudrate: 921600, BuildDir: "build"}
	out, err := Dump(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "chip = 'esp32'")
	assert.Contains(t, string(out), "baudrate = 921600")
}
