// Package rules routes input files to transformation pipelines.
//
// A rule binds a test predicate to an ordered list of steps. Each step names
// a loader and carries its options. Given a path, the ruleset returns the
// pipeline of the rule that claims it.
//
// # Predicate Syntax
//
// Predicates are written as strings:
//
//   - `/\.css$/` - regular expression with ECMAScript semantics; the only
//     accepted flags are `i`, `m` and `g` (the last is ignored)
//   - `re:\.css$` - regular expression without delimiters
//   - `*.css` - glob matched against the base name
//   - `src/**/*.css` - glob containing `/`, matched against the whole path
//   - `glob:/abs/*.css` - explicit glob, for globs that look like regexes
//
// Both kinds ignore a trailing `?query`; only the path selects a rule.
// A predicate that does not compile fails configuration loading.
//
// # Dispatch Order
//
// In first-match mode (the default) rules are evaluated in declaration
// order. The first rule whose test matches, whose include list (if any)
// matches and whose exclude list does not match wins. Overlapping patterns
// are resolved by order, so a specialised rule such as `.module.css` must
// come before the general `.css` rule, and the general rule should also
// exclude it:
//
//	[[rules]]
//	name = "css"
//	test = '/\.css$/'
//	exclude = ['/\.module\.css$/']
//
//	[[rules]]
//	name = "css-modules"
//	test = '/\.module\.css$/'
//
// Both halves have to be kept in sync by hand. Most-specific mode removes the
// dependency on order: among all rules that claim a path, the one whose test
// matched the longest span wins, with declaration order breaking ties.
//
// Audit and Check compare the two modes and report every path on which they
// disagree. Rules may list example paths that must dispatch to themselves;
// Check runs them at configuration load time.
package rules
