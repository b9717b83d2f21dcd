package rules

import (
	"path"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/gobwas/glob"

	"github.com/arthur-debert/bundl/pkg/errors"
)

// matchTimeout bounds a single regular expression evaluation.
const matchTimeout = 250 * time.Millisecond

// Predicate is a compiled test over a slash-separated request path.
type Predicate interface {
	// Source returns the predicate as written in configuration.
	Source() string
	// Match reports whether the predicate holds for the path part of p
	// (any ?query is ignored) and, if so, how many characters it accounted
	// for. The span drives most-specific dispatch.
	Match(p string) (span int, ok bool, err error)
}

// ParsePredicate compiles a predicate string.
func ParsePredicate(src string) (Predicate, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errors.New(errors.ErrPatternInvalid, "empty pattern")
	}

	switch {
	case strings.HasPrefix(src, "re:"):
		return compileRegex(src, strings.TrimPrefix(src, "re:"), "")
	case strings.HasPrefix(src, "glob:"):
		return compileGlob(src, strings.TrimPrefix(src, "glob:"))
	}

	if expr, flags, ok := splitRegexLiteral(src); ok {
		return compileRegex(src, expr, flags)
	}
	return compileGlob(src, src)
}

// MustParsePredicate is ParsePredicate for static patterns known to be valid.
func MustParsePredicate(src string) Predicate {
	p, err := ParsePredicate(src)
	if err != nil {
		panic(err)
	}
	return p
}

// splitRegexLiteral recognises /expr/flags.
func splitRegexLiteral(src string) (expr, flags string, ok bool) {
	if len(src) < 2 || src[0] != '/' {
		return "", "", false
	}
	end := strings.LastIndex(src, "/")
	if end == 0 {
		return "", "", false
	}
	flags = src[end+1:]
	if strings.Trim(flags, "gimsuy") != "" {
		return "", "", false
	}
	return src[1:end], flags, true
}

type regexPredicate struct {
	src string
	re  *regexp2.Regexp
}

func compileRegex(src, expr, flags string) (Predicate, error) {
	if expr == "" {
		return nil, errors.Newf(errors.ErrPatternInvalid, "empty regular expression in %q", src).
			WithDetail("pattern", src)
	}

	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 'g':
		default:
			return nil, errors.Newf(errors.ErrPatternInvalid, "unsupported regex flag %q in %q", f, src).
				WithDetail("pattern", src)
		}
	}

	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPatternInvalid, "invalid regular expression %q", src).
			WithDetail("pattern", src)
	}
	re.MatchTimeout = matchTimeout
	return &regexPredicate{src: src, re: re}, nil
}

func (r *regexPredicate) Source() string { return r.src }

func (r *regexPredicate) Match(p string) (int, bool, error) {
	m, err := r.re.FindStringMatch(stripQuery(p))
	if err != nil {
		return 0, false, errors.Wrapf(err, errors.ErrPatternInvalid, "cannot evaluate %q against %s", r.src, p).
			WithDetail("pattern", r.src).
			WithDetail("path", p)
	}
	if m == nil {
		return 0, false, nil
	}
	return m.Length, true, nil
}

type globPredicate struct {
	src     string
	g       glob.Glob
	full    bool
	literal int
}

func compileGlob(src, pattern string) (Predicate, error) {
	if pattern == "" {
		return nil, errors.Newf(errors.ErrPatternInvalid, "empty glob in %q", src).
			WithDetail("pattern", src)
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPatternInvalid, "invalid glob %q", src).
			WithDetail("pattern", src)
	}
	return &globPredicate{
		src:     src,
		g:       g,
		full:    strings.Contains(pattern, "/"),
		literal: literalLength(pattern),
	}, nil
}

func (g *globPredicate) Source() string { return g.src }

func (g *globPredicate) Match(p string) (int, bool, error) {
	target := stripQuery(p)
	if !g.full {
		target = path.Base(target)
	}
	if !g.g.Match(target) {
		return 0, false, nil
	}
	return g.literal, true, nil
}

// literalLength counts the characters of a glob that are not wildcards or
// inside a character class.
func literalLength(pattern string) int {
	n := 0
	depth := 0
	escaped := false
	for _, c := range pattern {
		switch {
		case escaped:
			escaped = false
			if depth == 0 {
				n++
			}
		case c == '\\':
			escaped = true
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			if depth > 0 {
				depth--
			}
		case c == '*' || c == '?':
		default:
			if depth == 0 {
				n++
			}
		}
	}
	return n
}

func stripQuery(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		return p[:i]
	}
	return p
}
