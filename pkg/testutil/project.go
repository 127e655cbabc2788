package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// StandardTable is a typical OTA layout with an app and a SPIFFS data partition
const StandardTable = `# Name,   Type, SubType, Offset,   Size,     Flags
nvs,      data, nvs,     0x9000,   0x4000,
otadata,  data, ota,     0xd000,   0x2000,
phy_init, data, phy,     0xf000,   0x1000,
app_0,    app,  ota_0,   0x10000,  0x140000,
data_0,   data, spiffs,  0x150000, 0x40000
`

// StandardDefaults places the bootloader and partition table explicitly
const StandardDefaults = `CONFIG_BOOTLOADER_OFFSET_IN_FLASH=0x0
CONFIG_PARTITION_TABLE_OFFSET=0x8000
CONFIG_PARTITION_TABLE_CUSTOM=y
`

// TestProject is a firmware project directory for tests
type TestProject struct {
	Dir string
}

// NewTestProject creates an empty project in a temp dir
func NewTestProject(t *testing.T) *TestProject {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "build"), 0755))
	return &TestProject{Dir: dir}
}

// NewStandardProject creates a project with StandardTable and
// StandardDefaults for both variants
func NewStandardProject(t *testing.T) *TestProject {
	t.Helper()

	p := NewTestProject(t)
	for _, v := range []string{"debug", "release"} {
		p.WithLayout(t, v, StandardTable, StandardDefaults)
	}
	return p
}

// WithLayout writes partitions_<variant>.csv and sdkconfig_<variant>.defaults
func (p *TestProject) WithLayout(t *testing.T, variant, table, defaults string) *TestProject {
	t.Helper()

	CreateFile(t, p.Dir, fmt.Sprintf("partitions_%s.csv", variant), table)
	CreateFile(t, p.Dir, fmt.Sprintf("sdkconfig_%s.defaults", variant), defaults)
	return p
}

// WithProjectConfig writes projectConfig.csv from ordered name,value pairs
func (p *TestProject) WithProjectConfig(t *testing.T, pairs ...string) *TestProject {
	t.Helper()

	require.True(t, len(pairs)%2 == 0, "pairs must be name,value")
	content := "# generated\n"
	for i := 0; i < len(pairs); i += 2 {
		content += pairs[i] + "," + pairs[i+1] + "\n"
	}
	CreateFile(t, p.Dir, "projectConfig.csv", content)
	return p
}

// AddFile writes content at a project relative path
func (p *TestProject) AddFile(t *testing.T, rel, content string) string {
	t.Helper()
	return CreateFile(t, p.Dir, rel, content)
}

// AddArtifact writes n pattern bytes at a project relative path and
// returns the bytes written
func (p *TestProject) AddArtifact(t *testing.T, rel string, n int, seed byte) []byte {
	t.Helper()

	data := Pattern(n, seed)
	CreateBytes(t, p.Dir, rel, data)
	return data
}

// Path returns the absolute path of a project relative path
func (p *TestProject) Path(rel string) string {
	return filepath.Join(p.Dir, filepath.FromSlash(rel))
}
