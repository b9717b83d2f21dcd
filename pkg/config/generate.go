package config

import (
	"encoding/json"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/bundl/pkg/errors"
)

// Marshal renders cfg in the given format: "toml", "yaml" or "json".
func Marshal(cfg *Config, format string) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch format {
	case "toml", "":
		out, err = toml.Marshal(cfg)
	case "yaml", "yml":
		out, err = yaml.Marshal(cfg)
	case "json":
		out, err = json.MarshalIndent(cfg, "", "  ")
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown config format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal, "failed to render config as %s", format)
	}
	return out, nil
}
