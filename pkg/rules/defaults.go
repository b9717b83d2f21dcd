package rules

import (
	"github.com/arthur-debert/bundl/pkg/config"
)

// Default compiles the rule table shipped in the embedded configuration.
// Order matters: scripts, plain css before css modules with excludes on the
// general rules, assets, and the catch-all script rule last.
func Default(opts CompileOptions) (*Ruleset, error) {
	cfg, err := config.Defaults()
	if err != nil {
		return nil, err
	}
	return Compile(cfg.EffectiveRules(), opts)
}

// FromConfig compiles the effective rules of cfg using its dispatch mode.
func FromConfig(cfg *config.Config, knownLoader func(string) bool) (*Ruleset, error) {
	return Compile(cfg.EffectiveRules(), CompileOptions{
		Mode:        Mode(cfg.Dispatch),
		KnownLoader: knownLoader,
	})
}
