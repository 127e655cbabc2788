package config

import (
	_ "embed"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/logging"
)

// File and variable names the loader looks for
const (
	ProjectConfigFile = "projectConfig.csv"
	TOMLConfigFile    = "fwprov.toml"
	YAMLConfigFile    = "fwprov.yaml"
	EnvPrefix         = "FWPROV_"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, stderrors.New("not implemented")
}

// LoadOptions controls where Load looks for configuration
type LoadOptions struct {
	// ProjectDir holds projectConfig.csv, fwprov.toml and the partition
	// tables. Defaults to the working directory.
	ProjectDir string

	// Overrides are key=value tokens from the command line. Tokens
	// without '=' are ignored.
	Overrides []string
}

// Load resolves the layered configuration into a validated BuildConfig
func Load(opts LoadOptions) (*BuildConfig, error) {
	logger := logging.GetLogger("config")

	projectDir := opts.ProjectDir
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to determine working directory")
		}
		projectDir = wd
	}

	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. projectConfig.csv
	csvPath := filepath.Join(projectDir, ProjectConfigFile)
	if _, err := os.Stat(csvPath); err == nil {
		if err := k.Load(ProjectCSVProvider(csvPath), nil); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load %s", csvPath)
		}
		logger.Debug().Str("path", csvPath).Msg("Loaded project config")
	} else {
		logger.Info().Str("path", csvPath).Msg("No project config found, using defaults")
	}

	// 3. fwprov.toml, then fwprov.yaml
	for _, src := range []struct {
		name   string
		parser koanf.Parser
	}{
		{TOMLConfigFile, toml.Parser()},
		{YAMLConfigFile, yaml.Parser()},
	} {
		path := filepath.Join(projectDir, src.name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), src.parser); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load %s", path)
		}
		logger.Debug().Str("path", path).Msg("Loaded config file")
	}

	// 4. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment")
	}

	// 5. Command line
	overrides, err := ParseOverrides(opts.Overrides)
	if err != nil {
		return nil, err
	}
	if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
	}

	cfg, err := unmarshal(k)
	if err != nil {
		return nil, err
	}
	cfg.ProjectDir = projectDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("target", string(cfg.Target)).
		Str("chip", cfg.Chip).
		Str("port", cfg.FlashPort).
		Int("extra_keys", len(cfg.Extra)).
		Msg("Configuration resolved")

	return cfg, nil
}

func unmarshal(k *koanf.Koanf) (*BuildConfig, error) {
	var cfg BuildConfig
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				trimStringHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to decode configuration")
	}

	for key, val := range k.All() {
		if knownKeys[key] {
			continue
		}
		if cfg.Extra == nil {
			cfg.Extra = make(map[string]string)
		}
		cfg.Extra[key] = fmt.Sprint(val)
	}
	return &cfg, nil
}

// ParseOverrides turns key=value tokens into a flat map. Tokens without
// '=' are skipped; an empty key is a ConfigError.
func ParseOverrides(tokens []string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(tokens))
	for _, tok := range tokens {
		key, value, ok := strings.Cut(tok, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, errors.Newf(errors.ErrConfigParse, "override %q has no key", tok)
		}
		out[key] = value
	}
	return out, nil
}
