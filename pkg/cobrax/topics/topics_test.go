package topics

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"partition-table.md":     {Data: []byte("# Partition table\n\nOffsets and sizes.")},
		"option-dry-run.txt":     {Data: []byte("Dry run prints commands.")},
		"nested/update-image.md": {Data: []byte("# Update image")},
		"notes.json":             {Data: []byte("{}")},
	}
}

func TestScan(t *testing.T) {
	tm := New(testFS(), Options{})
	require.NoError(t, tm.Scan())

	assert.Equal(t, []string{"option-dry-run", "partition-table", "update-image"}, tm.ListTopics())

	topic, ok := tm.GetTopic("partition-table")
	require.True(t, ok)
	assert.Equal(t, "partition-table.md", topic.FilePath)
	assert.Contains(t, topic.Content, "Offsets and sizes.")

	_, ok = tm.GetTopic("notes")
	assert.False(t, ok)
}

func TestScanCustomExtensions(t *testing.T) {
	tm := New(testFS(), Options{Extensions: []string{".json"}})
	require.NoError(t, tm.Scan())
	assert.Equal(t, []string{"notes"}, tm.ListTopics())
}

func TestGetTopicFlagSpelling(t *testing.T) {
	tm := New(testFS(), Options{})
	require.NoError(t, tm.Scan())

	for _, name := range []string{"--dry-run", "-dry-run", "dry-run", "option-dry-run"} {
		t.Run(name, func(t *testing.T) {
			topic, ok := tm.GetTopic(name)
			require.True(t, ok)
			assert.Equal(t, "option-dry-run", topic.Name)
		})
	}
}

func TestWriteList(t *testing.T) {
	tm := New(testFS(), Options{})
	require.NoError(t, tm.Scan())

	var buf bytes.Buffer
	tm.WriteList(&buf, "fwprov")
	out := buf.String()
	assert.Contains(t, out, "General topics:\n  partition-table\n  update-image")
	assert.Contains(t, out, "Option topics:\n  --dry-run")
	assert.Contains(t, out, "Use 'fwprov help <topic>'")

	buf.Reset()
	New(fstest.MapFS{}, Options{}).WriteList(&buf, "fwprov")
	assert.Equal(t, "No help topics available.\n", buf.String())
}

type upperRenderer struct{}

func (upperRenderer) Render(content, format string) string {
	return strings.ToUpper(content) + format
}

func TestInitialize(t *testing.T) {
	root := &cobra.Command{Use: "fwprov"}
	root.AddCommand(&cobra.Command{Use: "build", Short: "Build firmware", Run: func(*cobra.Command, []string) {}})

	_, err := Initialize(root, testFS(), Options{Renderer: upperRenderer{}})
	require.NoError(t, err)

	run := func(args ...string) string {
		var buf bytes.Buffer
		root.SetOut(&buf)
		root.SetErr(&buf)
		root.SetArgs(args)
		require.NoError(t, root.Execute())
		return buf.String()
	}

	assert.Equal(t, "# UPDATE IMAGE.md", run("help", "update-image"))
	assert.Contains(t, run("help", "topics"), "partition-table")
	assert.Contains(t, run("help", "build"), "Build firmware")
}

func TestPlainRenderer(t *testing.T) {
	assert.Equal(t, "x", (&PlainRenderer{}).Render("x", ".md"))
}

func TestGlamourRendererPassesThroughText(t *testing.T) {
	r := NewGlamourRenderer()
	assert.Equal(t, "plain", r.Render("plain", ".txt"))

	r.Style = "notty"
	out := r.Render("# Title", ".md")
	assert.Contains(t, out, "Title")
}
