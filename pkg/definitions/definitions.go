// Package definitions reads and rewrites the firmware's Definitions.hpp,
// the header that carries the module type, the firmware version and the
// debug switches.
package definitions

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/logging"
)

// Macro names the pipeline cares about
const (
	MacroModuleType      = "MODULE_TYPE"
	MacroFirmwareVersion = "FIRMWARE_VERSION"
	MacroDebugSituation  = "DEBUG_SITUATION"

	prototypeMarker = " PROTOTYPE"
)

// Definitions is the parsed content of a Definitions.hpp
type Definitions struct {
	Path            string
	ModuleType      string
	FirmwareVersion string
}

// Read parses the quoted MODULE_TYPE and FIRMWARE_VERSION values. A macro
// that is missing or unquoted yields an empty value; when a macro is
// defined more than once the last definition wins.
func Read(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrSourceMissing, "definitions file %s does not exist", path).
				WithDetail("path", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", path)
	}

	d := &Definitions{Path: path}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if v, ok := quotedDefine(line, MacroModuleType); ok {
			d.ModuleType = v
		}
		if v, ok := quotedDefine(line, MacroFirmwareVersion); ok {
			d.FirmwareVersion = v
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", path)
	}
	return d, nil
}

// quotedDefine returns the text between the first pair of double quotes on
// a line that defines macro.
func quotedDefine(line, macro string) (string, bool) {
	if !strings.Contains(line, "#define "+macro) {
		return "", false
	}
	start := strings.IndexByte(line, '"')
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(line[start+1:], '"')
	if end < 0 {
		return "", false
	}
	return line[start+1 : start+1+end], true
}

// TransformToRelease rewrites the file for a release build: an active
// "#define DEBUG_SITUATION" is commented out and " PROTOTYPE" is dropped
// from string literals. Lines already commented out are left alone. It
// reports whether anything changed; an unchanged file is not rewritten.
func TransformToRelease(path string) (bool, error) {
	logger := logging.GetLogger("definitions")

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, errors.Newf(errors.ErrSourceMissing, "definitions file %s does not exist", path).
				WithDetail("path", path)
		}
		return false, errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", path)
	}

	out, changed := transform(data)
	if !changed {
		logger.Debug().Str("path", path).Msg("Definitions already in release form")
		return false, nil
	}

	if err := writeAtomic(path, out, info.Mode().Perm()); err != nil {
		return false, err
	}
	logger.Info().Str("path", path).Msg("Transformed definitions to release")
	return true, nil
}

func transform(data []byte) ([]byte, bool) {
	lines := strings.SplitAfter(string(data), "\n")
	changed := false
	for i, line := range lines {
		next := line
		if isActiveDefine(next, MacroDebugSituation) {
			idx := strings.Index(next, "#define "+MacroDebugSituation)
			next = next[:idx] + "//" + next[idx:]
		}
		if strings.Contains(next, `"`) && strings.Contains(next, prototypeMarker) {
			next = stripInQuotes(next, prototypeMarker)
		}
		if next != line {
			lines[i] = next
			changed = true
		}
	}
	return []byte(strings.Join(lines, "")), changed
}

// isActiveDefine reports whether line defines macro outside a // comment
func isActiveDefine(line, macro string) bool {
	idx := strings.Index(line, "#define "+macro)
	if idx < 0 {
		return false
	}
	return !strings.Contains(line[:idx], "//")
}

// stripInQuotes removes marker wherever it occurs inside a "..." literal
func stripInQuotes(line, marker string) string {
	var b strings.Builder
	inQuote := false
	for i := 0; i < len(line); i++ {
		if line[i] == '"' {
			inQuote = !inQuote
		}
		if inQuote && strings.HasPrefix(line[i:], marker) {
			i += len(marker) - 1
			continue
		}
		b.WriteByte(line[i])
	}
	return b.String()
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "cannot create temp file for %s", path)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", path)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot chmod %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot replace %s", path)
	}
	return nil
}
