package config

import "time"

// Config is the fully merged configuration for one bundl process.
type Config struct {
	Mode       string              `koanf:"mode" toml:"mode" yaml:"mode"`
	Devtool    string              `koanf:"devtool" toml:"devtool" yaml:"devtool"`
	Context    string              `koanf:"context" toml:"context" yaml:"context"`
	Dispatch   string              `koanf:"dispatch" toml:"dispatch" yaml:"dispatch"`
	Strict     bool                `koanf:"strict" toml:"strict" yaml:"strict"`
	Entry      map[string][]string `koanf:"entry" toml:"entry" yaml:"entry"`
	Output     Output              `koanf:"output" toml:"output" yaml:"output"`
	Resolve    Resolve             `koanf:"resolve" toml:"resolve" yaml:"resolve"`
	HTML       HTML                `koanf:"html" toml:"html" yaml:"html"`
	Copy       Copy                `koanf:"copy" toml:"copy" yaml:"copy"`
	Watch      Watch               `koanf:"watch" toml:"watch" yaml:"watch"`
	Env        Env                 `koanf:"env" toml:"env" yaml:"env"`
	Sass       Sass                `koanf:"sass" toml:"sass" yaml:"sass"`
	Rules      []Rule              `koanf:"rules" toml:"rules" yaml:"rules"`
	ExtraRules []Rule              `koanf:"extra_rules" toml:"extra_rules,omitempty" yaml:"extra_rules,omitempty"`
}

// Output describes where and under which names build products are written.
type Output struct {
	Path          string `koanf:"path" toml:"path" yaml:"path"`
	Filename      string `koanf:"filename" toml:"filename" yaml:"filename"`
	ChunkFilename string `koanf:"chunk_filename" toml:"chunk_filename" yaml:"chunk_filename"`
	AssetFilename string `koanf:"asset_filename" toml:"asset_filename" yaml:"asset_filename"`
	PublicPath    string `koanf:"public_path" toml:"public_path" yaml:"public_path"`
	Format        string `koanf:"format" toml:"format" yaml:"format"`
}

// Resolve configures module resolution handed to the bundling engine.
type Resolve struct {
	Extensions []string `koanf:"extensions" toml:"extensions" yaml:"extensions"`
}

// HTML configures the generated HTML entry point.
type HTML struct {
	Template string            `koanf:"template" toml:"template" yaml:"template"`
	Filename string            `koanf:"filename" toml:"filename" yaml:"filename"`
	Env      map[string]string `koanf:"env" toml:"env" yaml:"env"`
}

// Copy configures the static passthrough directory.
type Copy struct {
	From   string   `koanf:"from" toml:"from" yaml:"from"`
	To     string   `koanf:"to" toml:"to" yaml:"to"`
	Ignore []string `koanf:"ignore" toml:"ignore" yaml:"ignore"`
}

// Watch configures watch-mode rebuilds.
type Watch struct {
	AggregateTimeout time.Duration `koanf:"aggregate_timeout" toml:"aggregate_timeout" yaml:"aggregate_timeout"`
	Poll             time.Duration `koanf:"poll" toml:"poll" yaml:"poll"`
	Ignored          []string      `koanf:"ignored" toml:"ignored" yaml:"ignored"`
}

// Env selects dotenv files whose prefixed variables are exposed to the
// bundle as process.env.* constants.
type Env struct {
	Files  []string `koanf:"files" toml:"files" yaml:"files"`
	Prefix string   `koanf:"prefix" toml:"prefix" yaml:"prefix"`
}

// Sass configures the Dart Sass embedded compiler used by sass-loader.
type Sass struct {
	Binary  string        `koanf:"binary" toml:"binary" yaml:"binary"`
	Timeout time.Duration `koanf:"timeout" toml:"timeout" yaml:"timeout"`
}

// Rule is the declarative form of a dispatch rule.
type Rule struct {
	Name        string   `koanf:"name" toml:"name" yaml:"name"`
	Test        string   `koanf:"test" toml:"test" yaml:"test"`
	Include     []string `koanf:"include" toml:"include,omitempty" yaml:"include,omitempty"`
	Exclude     []string `koanf:"exclude" toml:"exclude,omitempty" yaml:"exclude,omitempty"`
	Use         []Step   `koanf:"use" toml:"use" yaml:"use"`
	SideEffects bool     `koanf:"side_effects" toml:"side_effects,omitempty" yaml:"side_effects,omitempty"`
	Examples    []string `koanf:"examples" toml:"examples,omitempty" yaml:"examples,omitempty"`
}

// Step names a loader and its options.
type Step struct {
	Loader  string                 `koanf:"loader" toml:"loader" yaml:"loader" mapstructure:"loader"`
	Options map[string]interface{} `koanf:"options" toml:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
}

// EffectiveRules returns the rule list in dispatch order: extra rules first,
// then the main table.
func (c *Config) EffectiveRules() []Rule {
	rules := make([]Rule, 0, len(c.ExtraRules)+len(c.Rules))
	rules = append(rules, c.ExtraRules...)
	return append(rules, c.Rules...)
}

// IsProduction reports whether the build runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Mode == "production"
}
