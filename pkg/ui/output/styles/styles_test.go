package styles_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/fwprov/pkg/ui/output/styles"
)

func TestEmbeddedStylesLoaded(t *testing.T) {
	for _, name := range []string{
		"Header", "SubHeader", "Success", "Error", "Warning", "Info", "Muted",
		"Step", "FilePath", "Offset", "PartitionApp", "PartitionData",
		"PartitionSynthetic", "DryRunBanner",
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := styles.StyleRegistry[name]
			assert.True(t, ok, "style %s missing", name)
		})
	}

	c, ok := styles.Color("success")
	require.True(t, ok)
	assert.Equal(t, "#28A745", c.Light)
}

func TestGetStyleUnknown(t *testing.T) {
	s := styles.GetStyle("DoesNotExist")
	assert.Equal(t, "x", s.Render("x"))
}

func TestLoadStylesKeepsRegistryOnError(t *testing.T) {
	before := len(styles.StyleRegistry)

	err := styles.LoadStylesFromData([]byte("colors: [not, a, map"))
	require.Error(t, err)
	assert.Len(t, styles.StyleRegistry, before)
}

func TestLoadStylesFromFile(t *testing.T) {
	t.Cleanup(func() {
		// restore the embedded set for the other tests
		data, err := os.ReadFile("styles.yaml")
		require.NoError(t, err)
		require.NoError(t, styles.LoadStylesFromData(data))
	})

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
colors:
  red: {light: "#ff0000", dark: "#ff0000"}
styles:
  Alarm:
    bold: true
    foreground: red
`), 0644))

	require.NoError(t, styles.LoadStyles(path))
	_, ok := styles.StyleRegistry["Alarm"]
	assert.True(t, ok)
	_, ok = styles.StyleRegistry["Header"]
	assert.False(t, ok)

	assert.Error(t, styles.LoadStyles(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestPartitionStyle(t *testing.T) {
	assert.Equal(t, styles.GetStyle("PartitionSynthetic").GetItalic(), styles.PartitionStyle("", true).GetItalic())
	assert.True(t, styles.PartitionStyle("app", false).GetBold())
	assert.False(t, styles.PartitionStyle("data", false).GetBold())
}
