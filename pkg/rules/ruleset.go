package rules

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/bundl/pkg/config"
	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/logging"
)

// Ruleset is an ordered, immutable list of compiled rules.
type Ruleset struct {
	rules  []*Rule
	mode   Mode
	logger zerolog.Logger
}

// CompileOptions controls Compile.
type CompileOptions struct {
	Mode Mode
	// KnownLoader reports whether a loader name can be executed. When nil,
	// loader names are not checked.
	KnownLoader func(name string) bool
}

// Compile validates rule declarations and compiles their predicates.
func Compile(decls []config.Rule, opts CompileOptions) (*Ruleset, error) {
	mode := opts.Mode
	if mode == "" {
		mode = ModeFirstMatch
	}
	if mode != ModeFirstMatch && mode != ModeMostSpecific {
		return nil, errors.Newf(errors.ErrConfigValid, "unknown dispatch mode %q", mode)
	}

	rs := &Ruleset{
		mode:   mode,
		logger: logging.GetLogger("rules.dispatcher"),
	}

	seen := make(map[string]int)
	for i, decl := range decls {
		name := decl.Name
		if name == "" {
			name = decl.Test
		}
		if prev, ok := seen[name]; ok {
			return nil, errors.Newf(errors.ErrConfigValid, "rule %d duplicates the name %q of rule %d", i, name, prev).
				WithDetail("rule", name)
		}
		seen[name] = i

		rule, err := compileRule(name, decl, opts)
		if err != nil {
			return nil, errors.Wrapf(err, errors.GetErrorCode(err), "rule %d (%s)", i, name).
				WithDetail("rule", name)
		}
		rs.rules = append(rs.rules, rule)
	}

	if len(rs.rules) == 0 {
		return nil, errors.New(errors.ErrConfigValid, "no rules configured")
	}

	rs.logger.Debug().
		Int("ruleCount", len(rs.rules)).
		Str("mode", string(mode)).
		Msg("Compiled rules")

	return rs, nil
}

func compileRule(name string, decl config.Rule, opts CompileOptions) (*Rule, error) {
	test, err := ParsePredicate(decl.Test)
	if err != nil {
		return nil, err
	}

	rule := &Rule{
		Name:        name,
		Test:        test,
		SideEffects: decl.SideEffects,
		Examples:    decl.Examples,
	}

	for _, src := range decl.Include {
		p, err := ParsePredicate(src)
		if err != nil {
			return nil, err
		}
		rule.Include = append(rule.Include, p)
	}
	for _, src := range decl.Exclude {
		p, err := ParsePredicate(src)
		if err != nil {
			return nil, err
		}
		rule.Exclude = append(rule.Exclude, p)
	}

	if len(decl.Use) == 0 {
		return nil, errors.New(errors.ErrConfigValid, "rule has no steps")
	}
	for _, s := range decl.Use {
		step := Step{Loader: s.Loader, Options: Options(s.Options)}
		if err := checkStep(step, opts); err != nil {
			return nil, err
		}
		rule.Use = append(rule.Use, step)
	}

	return rule, nil
}

func checkStep(step Step, opts CompileOptions) error {
	if step.Loader == "" {
		return errors.New(errors.ErrConfigValid, "step has no loader")
	}
	if opts.KnownLoader != nil && !opts.KnownLoader(step.Loader) {
		return errors.Newf(errors.ErrLoaderUnknown, "unknown loader %q", step.Loader).
			WithDetail("loader", step.Loader)
	}
	if fallback, ok := step.Options.GetStep("fallback"); ok {
		return checkStep(fallback, opts)
	}
	return nil
}

// Mode returns the dispatch mode of the ruleset.
func (rs *Ruleset) Mode() Mode {
	return rs.mode
}

// Rules returns the rules in declaration order.
func (rs *Ruleset) Rules() []*Rule {
	out := make([]*Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Lookup returns the rule with the given name.
func (rs *Ruleset) Lookup(name string) (*Rule, bool) {
	for _, r := range rs.rules {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Dispatch selects the pipeline for a path. It returns an
// UNHANDLED_FILE_TYPE error when no rule claims the path.
func (rs *Ruleset) Dispatch(p string) (Selection, error) {
	return rs.dispatch(normalize(p), rs.mode)
}

func (rs *Ruleset) dispatch(p string, mode Mode) (Selection, error) {
	best := -1
	bestSpan := -1
	for i, rule := range rs.rules {
		span, ok, err := rule.matches(p)
		if err != nil {
			return Selection{Path: p}, errors.Wrapf(err, errors.ErrPatternInvalid, "rule %s failed on %s", rule.Name, p).
				WithDetail("rule", rule.Name).
				WithDetail("path", p)
		}
		if !ok {
			continue
		}
		if mode == ModeFirstMatch {
			best = i
			break
		}
		if span > bestSpan {
			best, bestSpan = i, span
		}
	}

	if best < 0 {
		rs.logger.Debug().Str("path", p).Msg("No rule matched")
		return Selection{Path: p}, errors.Newf(errors.ErrUnhandledFileType, "no rule matches %s", p).
			WithDetail("path", p)
	}

	rule := rs.rules[best]
	rs.logger.Trace().
		Str("path", p).
		Str("rule", rule.Name).
		Str("pipeline", rule.Use.String()).
		Msg("File matched rule")

	return Selection{
		Path:     p,
		Rule:     rule,
		Index:    best,
		Pipeline: rule.Use,
	}, nil
}

// Audit reports whether first-match and most-specific dispatch disagree on p.
func (rs *Ruleset) Audit(p string) (Conflict, bool) {
	p = normalize(p)
	first, errFirst := rs.dispatch(p, ModeFirstMatch)
	specific, errSpecific := rs.dispatch(p, ModeMostSpecific)
	if errFirst != nil || errSpecific != nil {
		return Conflict{}, false
	}
	if first.Rule == specific.Rule {
		return Conflict{}, false
	}
	return Conflict{
		Path:         p,
		FirstMatch:   first.Rule.Name,
		MostSpecific: specific.Rule.Name,
		Reason: "declaration order selects " + first.Rule.Name +
			" but " + specific.Rule.Name + " is more specific; reorder the rules or exclude the path from " +
			first.Rule.Name,
	}, true
}

// Check dispatches every rule's examples and reports those that do not land
// on the rule that lists them, plus any example on which the two dispatch
// modes disagree.
func (rs *Ruleset) Check() []Conflict {
	var conflicts []Conflict
	for _, rule := range rs.rules {
		for _, example := range rule.Examples {
			sel, err := rs.Dispatch(example)
			switch {
			case err != nil:
				conflicts = append(conflicts, Conflict{
					Path:     normalize(example),
					Expected: rule.Name,
					Reason:   "example of " + rule.Name + " is not handled by any rule",
				})
				continue
			case sel.Rule != rule:
				conflicts = append(conflicts, Conflict{
					Path:     sel.Path,
					Expected: rule.Name,
					Reason:   "example of " + rule.Name + " is dispatched to " + sel.Rule.Name,
				})
				continue
			}
			if c, ok := rs.Audit(example); ok {
				c.Expected = rule.Name
				conflicts = append(conflicts, c)
			}
		}
	}
	return conflicts
}

func normalize(p string) string {
	return filepath.ToSlash(p)
}
