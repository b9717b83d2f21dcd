package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/logging"
)

// EnvPrefix is the prefix of environment variables read into the config.
const EnvPrefix = "BUNDL_"

// ProjectFiles are the project config names, in lookup order.
var ProjectFiles = []string{"bundl.toml", ".bundl.toml", "bundl.yaml", "bundl.yml"}

// LoadOptions controls which layers Load reads.
type LoadOptions struct {
	// ProjectDir is searched for a project file. Defaults to ".".
	ProjectDir string
	// ConfigFile, when set, is used instead of searching ProjectDir.
	ConfigFile string
	// SkipUserConfig disables the XDG user config layer.
	SkipUserConfig bool
	// Overrides are applied last, keyed by dotted path (e.g. "output.path").
	Overrides map[string]interface{}
}

// Load builds the effective configuration from all layers.
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config.loader")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. User config
	if !opts.SkipUserConfig {
		userPath := filepath.Join(xdg.ConfigHome, "bundl", "config.toml")
		if _, err := os.Stat(userPath); err == nil {
			logger.Debug().Str("path", userPath).Msg("Loading user config")
			if err := loadFile(k, userPath); err != nil {
				return nil, err
			}
		}
	}

	// 3. Project config
	projectPath, err := findProjectFile(opts)
	if err != nil {
		return nil, err
	}
	if projectPath != "" {
		logger.Debug().Str("path", projectPath).Msg("Loading project config")
		if err := loadFile(k, projectPath); err != nil {
			return nil, err
		}
	}

	// 4. Environment
	err = k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 5. Overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	cfg, err := unmarshal(k)
	if err != nil {
		return nil, err
	}

	if cfg.Context == "" || cfg.Context == "." {
		if opts.ProjectDir != "" {
			cfg.Context = opts.ProjectDir
		} else if projectPath != "" {
			cfg.Context = filepath.Dir(projectPath)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("mode", cfg.Mode).
		Int("rules", len(cfg.EffectiveRules())).
		Msg("Configuration loaded")

	return cfg, nil
}

// Defaults returns the configuration built from the embedded defaults only.
func Defaults() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}
	return unmarshal(k)
}

func findProjectFile(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", errors.Wrapf(err, errors.ErrConfigLoad, "config file %s", opts.ConfigFile)
		}
		return opts.ConfigFile, nil
	}

	dir := opts.ProjectDir
	if dir == "" {
		dir = "."
	}
	for _, name := range ProjectFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

func loadFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", path)
	}
	return nil
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				stringToStepHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}
	return &cfg, nil
}

// stringToStepHookFunc lets `use` lists name a loader without options:
// use = ["style-loader", { loader = "css-loader", options = {...} }]
func stringToStepHookFunc() mapstructure.DecodeHookFunc {
	stepType := reflect.TypeOf(Step{})
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != stepType {
			return data, nil
		}
		return map[string]interface{}{"loader": data}, nil
	}
}

// Validate checks settings that do not depend on the rules package.
func Validate(cfg *Config) error {
	switch cfg.Mode {
	case "development", "production", "none":
	default:
		return errors.Newf(errors.ErrConfigValid, "unknown mode %q", cfg.Mode).
			WithDetail("field", "mode")
	}

	switch cfg.Dispatch {
	case "first-match", "most-specific":
	default:
		return errors.Newf(errors.ErrConfigValid, "unknown dispatch mode %q", cfg.Dispatch).
			WithDetail("field", "dispatch")
	}

	switch cfg.Output.Format {
	case "iife", "esm", "cjs":
	default:
		return errors.Newf(errors.ErrConfigValid, "unknown output format %q", cfg.Output.Format).
			WithDetail("field", "output.format")
	}

	if len(cfg.Entry) == 0 {
		return errors.New(errors.ErrConfigValid, "at least one entry is required").
			WithDetail("field", "entry")
	}
	for name, files := range cfg.Entry {
		if len(files) == 0 {
			return errors.Newf(errors.ErrConfigValid, "entry %q has no files", name).
				WithDetail("field", "entry."+name)
		}
	}

	if cfg.Output.Path == "" {
		return errors.New(errors.ErrConfigValid, "output.path is required").
			WithDetail("field", "output.path")
	}

	if len(cfg.EffectiveRules()) == 0 {
		return errors.New(errors.ErrConfigValid, "no rules configured").
			WithDetail("field", "rules")
	}

	return nil
}

// Abs returns p joined to the config context unless it is already absolute.
func (c *Config) Abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Context, p)
}
