// Test Type: Unit Test
// Description: Tests for rule compilation and dispatch against the default rule table

package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/bundl/pkg/config"
	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/rules"
)

func defaultRuleset(t *testing.T, mode rules.Mode) *rules.Ruleset {
	t.Helper()
	rs, err := rules.Default(rules.CompileOptions{Mode: mode})
	require.NoError(t, err)
	return rs
}

func hasModules(p rules.Pipeline) bool {
	for _, s := range p {
		if s.Options.GetBool("modules", false) {
			return true
		}
	}
	return false
}

func TestDispatch_CSSModulesAreScoped(t *testing.T) {
	for _, mode := range []rules.Mode{rules.ModeFirstMatch, rules.ModeMostSpecific} {
		t.Run(string(mode), func(t *testing.T) {
			rs := defaultRuleset(t, mode)

			for _, p := range []string{"a.module.css", "src/components/Button.module.css"} {
				sel, err := rs.Dispatch(p)
				require.NoError(t, err)
				assert.Equal(t, "css-modules", sel.Rule.Name, p)
				assert.True(t, hasModules(sel.Pipeline), "%s should enable scoped class names", p)
			}

			for _, p := range []string{"index.css", "src/module.css", "vendor/modules.css"} {
				sel, err := rs.Dispatch(p)
				require.NoError(t, err)
				assert.Equal(t, "css", sel.Rule.Name, p)
				assert.False(t, hasModules(sel.Pipeline), "%s should not enable scoped class names", p)
			}
		})
	}
}

func TestDispatch_SassPreprocessorRunsFirst(t *testing.T) {
	rs := defaultRuleset(t, rules.ModeFirstMatch)

	for _, p := range []string{"theme.scss", "legacy.sass", "a.module.scss", "b.module.sass"} {
		sel, err := rs.Dispatch(p)
		require.NoError(t, err)

		loaders := sel.Pipeline.Loaders()
		assert.Equal(t, []string{"style-loader", "css-loader", "sass-loader"}, loaders, p)
		assert.Greater(t, sel.Pipeline.Index("sass-loader"), sel.Pipeline.Index("css-loader"), p)
		assert.Greater(t, sel.Pipeline.Index("css-loader"), sel.Pipeline.Index("style-loader"), p)
	}
}

func TestDispatch_ModuleSCSSSelectsModuleRule(t *testing.T) {
	rs := defaultRuleset(t, rules.ModeFirstMatch)

	sel, err := rs.Dispatch("a.module.scss")
	require.NoError(t, err)
	assert.Equal(t, "sass-modules", sel.Rule.Name)
	assert.True(t, hasModules(sel.Pipeline))

	sel, err = rs.Dispatch("a.scss")
	require.NoError(t, err)
	assert.Equal(t, "sass", sel.Rule.Name)
	assert.False(t, hasModules(sel.Pipeline))
}

func TestDispatch_SVGAlwaysEmitsFile(t *testing.T) {
	rs := defaultRuleset(t, rules.ModeFirstMatch)

	sel, err := rs.Dispatch("logo.svg")
	require.NoError(t, err)
	assert.Equal(t, "svg", sel.Rule.Name)
	require.Len(t, sel.Pipeline, 1)
	assert.Equal(t, "file-loader", sel.Pipeline[0].Loader)
	_, hasLimit := sel.Pipeline[0].Options.GetInt("limit")
	assert.False(t, hasLimit, "svg must not be subject to an inline threshold")
}

func TestDispatch_ImagesUseInlineThreshold(t *testing.T) {
	rs := defaultRuleset(t, rules.ModeFirstMatch)

	for _, p := range []string{"icon.png", "photo.jpg", "photo.jpeg", "anim.gif", "hero.webp", "icon.png?v=3"} {
		sel, err := rs.Dispatch(p)
		require.NoError(t, err, p)
		assert.Equal(t, "images", sel.Rule.Name, p)
		require.Len(t, sel.Pipeline, 1)

		step := sel.Pipeline[0]
		assert.Equal(t, "url-loader", step.Loader)
		limit, ok := step.Options.GetInt("limit")
		require.True(t, ok)
		assert.EqualValues(t, 4096, limit)

		fallback, ok := step.Options.GetStep("fallback")
		require.True(t, ok)
		assert.Equal(t, "file-loader", fallback.Loader)
		assert.Equal(t, "img/[name].[hash:8].[ext]", fallback.Options.GetString("name", ""))
	}
}

func TestDispatch_IgnoresQuerySuffix(t *testing.T) {
	rs := defaultRuleset(t, rules.ModeFirstMatch)

	tests := []struct {
		path string
		rule string
	}{
		{"src/a.css?inline", "css"},
		{"src/a.module.css?v=2", "css-modules"},
		{"src/theme.scss?x", "sass"},
		{"src/card.module.sass?raw", "sass-modules"},
		{"src/main.js?v=1", "scripts"},
		{"src/App.tsx?hot", "scripts"},
		{"logo.svg?v=1", "svg"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			sel, err := rs.Dispatch(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.rule, sel.Rule.Name)
			assert.Equal(t, tt.path, sel.Path)
		})
	}
}

func TestDispatch_Unhandled(t *testing.T) {
	rs := defaultRuleset(t, rules.ModeFirstMatch)

	for _, p := range []string{"data.xyz", "README", "styles.less"} {
		sel, err := rs.Dispatch(p)
		require.Error(t, err, p)
		assert.True(t, errors.IsErrorCode(err, errors.ErrUnhandledFileType), p)
		assert.Nil(t, sel.Rule)
		assert.Equal(t, p, errors.GetErrorDetails(err)["path"])
	}
}

func TestDispatch_ScriptsAndVendor(t *testing.T) {
	rs := defaultRuleset(t, rules.ModeFirstMatch)

	sel, err := rs.Dispatch("src/main.js")
	require.NoError(t, err)
	assert.Equal(t, "scripts", sel.Rule.Name)

	sel, err = rs.Dispatch("node_modules/react/index.js")
	require.NoError(t, err)
	assert.Equal(t, "vendor-scripts", sel.Rule.Name, "node_modules is excluded from the first script rule")

	_, err = rs.Dispatch("node_modules/lib/index.ts")
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnhandledFileType))
}

func TestDispatch_FontsIgnoreCase(t *testing.T) {
	rs := defaultRuleset(t, rules.ModeFirstMatch)

	sel, err := rs.Dispatch("fonts/Inter.WOFF2")
	require.NoError(t, err)
	assert.Equal(t, "fonts", sel.Rule.Name)
}

func TestDefault_ChecksClean(t *testing.T) {
	for _, mode := range []rules.Mode{rules.ModeFirstMatch, rules.ModeMostSpecific} {
		rs := defaultRuleset(t, mode)
		assert.Empty(t, rs.Check(), "default rules should pass their own examples in %s mode", mode)
	}
}

// overlapping mirrors the default css rules with the exclude predicate
// forgotten on the general rule.
func overlapping() []config.Rule {
	return []config.Rule{
		{
			Name:     "css",
			Test:     `/\.css$/`,
			Use:      []config.Step{{Loader: "style-loader"}, {Loader: "css-loader"}},
			Examples: []string{"index.css"},
		},
		{
			Name: "css-modules",
			Test: `/\.module\.css$/`,
			Use: []config.Step{
				{Loader: "style-loader"},
				{Loader: "css-loader", Options: map[string]interface{}{"modules": true}},
			},
			Examples: []string{"a.module.css"},
		},
	}
}

func TestDispatch_ModesDisagreeWithoutExclude(t *testing.T) {
	first, err := rules.Compile(overlapping(), rules.CompileOptions{Mode: rules.ModeFirstMatch})
	require.NoError(t, err)
	specific, err := rules.Compile(overlapping(), rules.CompileOptions{Mode: rules.ModeMostSpecific})
	require.NoError(t, err)

	sel, err := first.Dispatch("a.module.css")
	require.NoError(t, err)
	assert.Equal(t, "css", sel.Rule.Name, "declaration order wins in first-match mode")

	sel, err = specific.Dispatch("a.module.css")
	require.NoError(t, err)
	assert.Equal(t, "css-modules", sel.Rule.Name, "longest match wins in most-specific mode")

	conflict, ok := first.Audit("a.module.css")
	require.True(t, ok)
	assert.Equal(t, "css", conflict.FirstMatch)
	assert.Equal(t, "css-modules", conflict.MostSpecific)

	_, ok = first.Audit("index.css")
	assert.False(t, ok)
}

func TestCheck_ReportsOutOfSyncRules(t *testing.T) {
	rs, err := rules.Compile(overlapping(), rules.CompileOptions{})
	require.NoError(t, err)

	conflicts := rs.Check()
	require.Len(t, conflicts, 1)
	assert.Equal(t, "a.module.css", conflicts[0].Path)
	assert.Equal(t, "css-modules", conflicts[0].Expected)
	assert.Contains(t, conflicts[0].String(), "dispatched to css")
}

func TestCheck_UnhandledExample(t *testing.T) {
	rs, err := rules.Compile([]config.Rule{
		{Name: "js", Test: "*.js", Use: []config.Step{{Loader: "babel-loader"}}, Examples: []string{"main.ts"}},
	}, rules.CompileOptions{})
	require.NoError(t, err)

	conflicts := rs.Check()
	require.Len(t, conflicts, 1)
	assert.Contains(t, conflicts[0].Reason, "not handled")
}

func TestCompile_Errors(t *testing.T) {
	known := func(name string) bool { return name == "babel-loader" || name == "file-loader" }

	tests := []struct {
		name  string
		rules []config.Rule
		code  errors.ErrorCode
	}{
		{
			name:  "malformed_pattern",
			rules: []config.Rule{{Name: "bad", Test: `/\.(js$/`, Use: []config.Step{{Loader: "babel-loader"}}}},
			code:  errors.ErrPatternInvalid,
		},
		{
			name: "malformed_exclude",
			rules: []config.Rule{{
				Name: "bad", Test: "*.js", Exclude: []string{`/[/`},
				Use: []config.Step{{Loader: "babel-loader"}},
			}},
			code: errors.ErrPatternInvalid,
		},
		{
			name:  "empty_test",
			rules: []config.Rule{{Name: "bad", Use: []config.Step{{Loader: "babel-loader"}}}},
			code:  errors.ErrPatternInvalid,
		},
		{
			name:  "no_steps",
			rules: []config.Rule{{Name: "bad", Test: "*.js"}},
			code:  errors.ErrConfigValid,
		},
		{
			name:  "unknown_loader",
			rules: []config.Rule{{Name: "bad", Test: "*.js", Use: []config.Step{{Loader: "coffee-loader"}}}},
			code:  errors.ErrLoaderUnknown,
		},
		{
			name: "unknown_fallback_loader",
			rules: []config.Rule{{
				Name: "bad", Test: "*.png",
				Use: []config.Step{{Loader: "file-loader", Options: map[string]interface{}{
					"fallback": map[string]interface{}{"loader": "nope-loader"},
				}}},
			}},
			code: errors.ErrLoaderUnknown,
		},
		{
			name: "duplicate_name",
			rules: []config.Rule{
				{Name: "js", Test: "*.js", Use: []config.Step{{Loader: "babel-loader"}}},
				{Name: "js", Test: "*.mjs", Use: []config.Step{{Loader: "babel-loader"}}},
			},
			code: errors.ErrConfigValid,
		},
		{
			name:  "no_rules",
			rules: nil,
			code:  errors.ErrConfigValid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rules.Compile(tt.rules, rules.CompileOptions{KnownLoader: known})
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, tt.code), "got %v", err)
		})
	}
}

func TestCompile_UnknownMode(t *testing.T) {
	_, err := rules.Compile(overlapping(), rules.CompileOptions{Mode: "random"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
}

func TestCompile_IncludeNarrowsRule(t *testing.T) {
	rs, err := rules.Compile([]config.Rule{
		{Name: "app-js", Test: "*.js", Include: []string{"src/**"}, Use: []config.Step{{Loader: "babel-loader"}}},
		{Name: "any-js", Test: "*.js", Use: []config.Step{{Loader: "babel-loader"}}},
	}, rules.CompileOptions{})
	require.NoError(t, err)

	sel, err := rs.Dispatch("src/app/main.js")
	require.NoError(t, err)
	assert.Equal(t, "app-js", sel.Rule.Name)

	sel, err = rs.Dispatch("scripts/build.js")
	require.NoError(t, err)
	assert.Equal(t, "any-js", sel.Rule.Name)
}

func TestRuleset_Accessors(t *testing.T) {
	rs := defaultRuleset(t, rules.ModeMostSpecific)
	assert.Equal(t, rules.ModeMostSpecific, rs.Mode())

	all := rs.Rules()
	require.NotEmpty(t, all)
	assert.Equal(t, "scripts", all[0].Name)

	r, ok := rs.Lookup("svg")
	require.True(t, ok)
	assert.Equal(t, `/\.(svg)(\?.*)?$/`, r.Test.Source())

	_, ok = rs.Lookup("missing")
	assert.False(t, ok)
}

func TestPipeline_String(t *testing.T) {
	p := rules.Pipeline{{Loader: "style-loader"}, {Loader: "css-loader"}, {Loader: "sass-loader"}}
	assert.Equal(t, "style-loader!css-loader!sass-loader", p.String())
	assert.Equal(t, -1, p.Index("babel-loader"))
}
