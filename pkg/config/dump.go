package config

import (
	"github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/fwprov/pkg/errors"
)

// Dump renders the resolved configuration as TOML
func Dump(cfg *BuildConfig) ([]byte, error) {
	out, err := toml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to render configuration")
	}
	return out, nil
}
