package definitions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/testutil"
)

const sampleHeader = `#pragma once

#define MODULE_TYPE "SMARTFIT"
#define FIRMWARE_VERSION "2.4.1 PROTOTYPE"
#define DEBUG_SITUATION
//#define DEBUG_SITUATION
#define PROTOTYPE_BOARD 1
`

func TestRead(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CreateFile(t, dir, "main/Definitions.hpp", sampleHeader)

	d, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "SMARTFIT", d.ModuleType)
	assert.Equal(t, "2.4.1 PROTOTYPE", d.FirmwareVersion)
}

func TestReadEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"missing", "#define OTHER \"x\"\n", ""},
		{"unquoted", "#define MODULE_TYPE SMARTFIT\n", ""},
		{"last_wins", "#define MODULE_TYPE \"A\"\n#define MODULE_TYPE \"B\"\n", "B"},
		{"trailing_comment", "#define MODULE_TYPE \"A\" // \"ignored\"\n", "A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.CreateFile(t, t.TempDir(), "Definitions.hpp", tt.content)
			d, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.ModuleType)
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(t.TempDir() + "/nope.hpp")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSourceMissing))
}

func TestTransformToRelease(t *testing.T) {
	path := testutil.CreateFile(t, t.TempDir(), "Definitions.hpp", sampleHeader)

	changed, err := TransformToRelease(path)
	require.NoError(t, err)
	assert.True(t, changed)

	want := `#pragma once

#define MODULE_TYPE "SMARTFIT"
#define FIRMWARE_VERSION "2.4.1"
//#define DEBUG_SITUATION
//#define DEBUG_SITUATION
#define PROTOTYPE_BOARD 1
`
	assert.Equal(t, want, string(testutil.ReadBytes(t, path)))

	// second run is a no-op
	changed, err = TransformToRelease(path)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, want, string(testutil.ReadBytes(t, path)))
}

func TestTransformKeepsIndentation(t *testing.T) {
	path := testutil.CreateFile(t, t.TempDir(), "Definitions.hpp", "  #define DEBUG_SITUATION 1\r\n")

	_, err := TransformToRelease(path)
	require.NoError(t, err)
	assert.Equal(t, "  //#define DEBUG_SITUATION 1\r\n", string(testutil.ReadBytes(t, path)))
}
