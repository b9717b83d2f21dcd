package rules

import (
	"fmt"
	"strings"
)

// Mode selects how overlapping rules are resolved.
type Mode string

const (
	// ModeFirstMatch picks the first matching rule in declaration order.
	ModeFirstMatch Mode = "first-match"
	// ModeMostSpecific picks the matching rule with the longest matched span.
	ModeMostSpecific Mode = "most-specific"
)

// Options holds the configuration of one step.
type Options map[string]interface{}

// Step is one named transformation in a pipeline.
type Step struct {
	Loader  string
	Options Options
}

// Pipeline is an ordered list of steps. Steps are declared outermost first,
// so the last step is applied to the source first.
type Pipeline []Step

// Rule binds a test predicate to a pipeline.
type Rule struct {
	Name        string
	Test        Predicate
	Include     []Predicate
	Exclude     []Predicate
	Use         Pipeline
	SideEffects bool
	Examples    []string
}

// Selection is the result of dispatching one path.
type Selection struct {
	Path     string
	Rule     *Rule
	Index    int
	Pipeline Pipeline
}

// Conflict describes a path that does not land where it should.
type Conflict struct {
	Path         string
	Expected     string
	FirstMatch   string
	MostSpecific string
	Reason       string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %s", c.Path, c.Reason)
}

// Loaders returns the loader names of the pipeline in declaration order.
func (p Pipeline) Loaders() []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Loader
	}
	return names
}

// Index returns the position of the first step using loader, or -1.
func (p Pipeline) Index(loader string) int {
	for i, s := range p {
		if s.Loader == loader {
			return i
		}
	}
	return -1
}

// String renders the pipeline as "a ! b ! c", the inline loader notation.
func (p Pipeline) String() string {
	return strings.Join(p.Loaders(), "!")
}

// matches evaluates the rule against p and returns the test span.
func (r *Rule) matches(p string) (int, bool, error) {
	span, ok, err := r.Test.Match(p)
	if err != nil || !ok {
		return 0, false, err
	}
	if len(r.Include) > 0 {
		included := false
		for _, inc := range r.Include {
			_, ok, err := inc.Match(p)
			if err != nil {
				return 0, false, err
			}
			if ok {
				included = true
				break
			}
		}
		if !included {
			return 0, false, nil
		}
	}
	for _, ex := range r.Exclude {
		_, ok, err := ex.Match(p)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return 0, false, nil
		}
	}
	return span, true, nil
}

// GetString returns the value of a string option or def.
func (o Options) GetString(key, def string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return def
}

// GetBool returns the value of a boolean option or def.
func (o Options) GetBool(key string, def bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return def
}

// GetInt returns the value of an integer option. Decoders hand numbers back
// as different integer and float types, all of which are accepted.
func (o Options) GetInt(key string) (int64, bool) {
	switch v := o[key].(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint64:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}

// GetStrings returns a list option or nil.
func (o Options) GetStrings(key string) []string {
	switch v := o[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}

// GetStep decodes a nested step option such as url-loader's fallback.
func (o Options) GetStep(key string) (Step, bool) {
	switch v := o[key].(type) {
	case string:
		return Step{Loader: v}, true
	case map[string]interface{}:
		loader, _ := v["loader"].(string)
		if loader == "" {
			return Step{}, false
		}
		opts, _ := v["options"].(map[string]interface{})
		return Step{Loader: loader, Options: Options(opts)}, true
	case Step:
		return v, true
	}
	return Step{}, false
}
