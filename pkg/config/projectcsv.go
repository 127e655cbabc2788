package config

import (
	"bufio"
	"bytes"
	stderrors "errors"
	"os"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/arthur-debert/fwprov/pkg/errors"
)

// ProjectCSV reads projectConfig.csv as a koanf provider
type ProjectCSV struct {
	path string
}

// ProjectCSVProvider returns a koanf provider over a Name,Path file.
// Lines starting with '#' and blank lines are skipped. All spaces are
// removed from the value; the name is trimmed.
func ProjectCSVProvider(path string) *ProjectCSV {
	return &ProjectCSV{path: path}
}

func (p *ProjectCSV) ReadBytes() ([]byte, error) {
	return nil, stderrors.New("projectConfig provider does not support ReadBytes")
}

func (p *ProjectCSV) Read() (map[string]interface{}, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read %s", p.path)
	}
	return ParseProjectCSV(data, p.path)
}

// ParseProjectCSV parses the contents of a projectConfig.csv file
func ParseProjectCSV(data []byte, source string) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, ",")
		if !ok {
			return nil, errors.Newf(errors.ErrConfigParse, "%s:%d: expected Name,Path", source, lineNo).
				WithDetail("line", lineNo)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.Newf(errors.ErrConfigParse, "%s:%d: empty name", source, lineNo).
				WithDetail("line", lineNo)
		}
		out[name] = strings.ReplaceAll(value, " ", "")
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read %s", source)
	}
	return out, nil
}

// trimStringHookFunc strips surrounding whitespace from strings bound for
// string fields; env values and TOML strings often carry stray spaces.
func trimStringHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.String {
			return data, nil
		}
		s, ok := data.(string)
		if !ok {
			return data, nil
		}
		return strings.TrimSpace(s), nil
	}
}
