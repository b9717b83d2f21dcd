package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/arthur-debert/bundl/pkg/errors"
)

// Vars are the values substituted into a filename template.
type Vars struct {
	Name  string
	Ext   string
	Hash  string
	Query string
	Path  string
}

// ContentHash returns the hex content hash used by [hash] placeholders.
func ContentHash(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

type placeholder struct {
	key    string
	length int
}

type segment struct {
	literal string
	ph      *placeholder
}

func parse(tmpl string) ([]segment, error) {
	var segs []segment
	rest := tmpl
	for rest != "" {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			segs = append(segs, segment{literal: rest})
			break
		}
		if open > 0 {
			segs = append(segs, segment{literal: rest[:open]})
		}
		end := strings.IndexByte(rest[open:], ']')
		if end < 0 {
			return nil, errors.Newf(errors.ErrTemplate, "unterminated placeholder in %q", tmpl).
				WithDetail("template", tmpl)
		}
		ph, err := parsePlaceholder(rest[open+1 : open+end])
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrTemplate, "invalid template %q", tmpl).
				WithDetail("template", tmpl)
		}
		segs = append(segs, segment{ph: ph})
		rest = rest[open+end+1:]
	}
	return segs, nil
}

func parsePlaceholder(body string) (*placeholder, error) {
	key, length, hasLength := strings.Cut(body, ":")
	switch key {
	case "name", "ext", "query", "path":
		if hasLength {
			return nil, fmt.Errorf("[%s] does not take a length", key)
		}
		return &placeholder{key: key}, nil
	case "hash", "contenthash":
		ph := &placeholder{key: "hash"}
		if hasLength {
			n, err := strconv.Atoi(length)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid hash length %q", length)
			}
			ph.length = n
		}
		return ph, nil
	default:
		return nil, fmt.Errorf("unknown placeholder [%s]", body)
	}
}

// Render expands a filename template.
func Render(tmpl string, vars Vars) (string, error) {
	segs, err := parse(tmpl)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, seg := range segs {
		if seg.ph == nil {
			b.WriteString(seg.literal)
			continue
		}
		switch seg.ph.key {
		case "name":
			b.WriteString(vars.Name)
		case "ext":
			b.WriteString(vars.Ext)
		case "query":
			b.WriteString(vars.Query)
		case "path":
			if vars.Path != "" && vars.Path != "." {
				b.WriteString(strings.TrimSuffix(vars.Path, "/") + "/")
			}
		case "hash":
			if vars.Hash == "" {
				return "", errors.Newf(errors.ErrTemplate, "template %q needs a content hash", tmpl).
					WithDetail("template", tmpl)
			}
			h := vars.Hash
			if seg.ph.length > 0 && seg.ph.length < len(h) {
				h = h[:seg.ph.length]
			}
			b.WriteString(h)
		}
	}
	return b.String(), nil
}

// ValidateTemplate parses tmpl and, when requireHash is set, insists on a
// hash placeholder so that each distinct content gets its own name.
func ValidateTemplate(tmpl string, requireHash bool) error {
	if tmpl == "" {
		return errors.New(errors.ErrTemplate, "empty filename template")
	}
	segs, err := parse(tmpl)
	if err != nil {
		return err
	}
	if !requireHash {
		return nil
	}
	for _, seg := range segs {
		if seg.ph != nil && seg.ph.key == "hash" {
			return nil
		}
	}
	return errors.Newf(errors.ErrConfigValid, "template %q has no [hash] placeholder", tmpl).
		WithDetail("template", tmpl)
}

// EntryNames converts a bundle filename template to the bundling engine's
// naming syntax, which appends the extension itself.
func EntryNames(tmpl string) (string, error) {
	segs, err := parse(tmpl)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, seg := range segs {
		if seg.ph == nil {
			b.WriteString(seg.literal)
			continue
		}
		switch seg.ph.key {
		case "name":
			b.WriteString("[name]")
		case "hash":
			b.WriteString("[hash]")
		case "path":
			b.WriteString("[dir]")
		case "ext":
			b.WriteString("[ext]")
		case "query":
		}
	}

	out := b.String()
	for _, suffix := range []string{".[ext]", ".js", ".mjs", ".cjs", ".css"} {
		if strings.HasSuffix(out, suffix) {
			out = strings.TrimSuffix(out, suffix)
			break
		}
	}
	return out, nil
}
