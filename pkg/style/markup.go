package style

import (
	"regexp"
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// MarkupParser renders [tag]text[/tag] markup with lipgloss styles.
type MarkupParser struct {
	styles   map[string]lipgloss.Style
	patterns map[string]*regexp.Regexp
	plain    bool
}

// NewMarkupParser returns a parser with the default tags. A plain parser
// strips the tags instead of styling them.
func NewMarkupParser(plain bool) *MarkupParser {
	p := &MarkupParser{
		styles:   make(map[string]lipgloss.Style),
		patterns: make(map[string]*regexp.Regexp),
		plain:    plain,
	}
	defaults := map[string]lipgloss.Style{
		"title":   TitleStyle,
		"success": SuccessStyle,
		"error":   ErrorStyle,
		"warning": WarningStyle,
		"info":    InfoStyle,
		"code":    CodeStyle,
		"path":    PathStyle,
		"muted":   MutedStyle,
		"bold":    lipgloss.NewStyle().Bold(true),
		"js":      ScriptStyle,
		"css":     StylesheetStyle,
		"asset":   AssetStyle,
	}
	for tag, s := range defaults {
		p.AddStyle(tag, s)
	}
	return p
}

// AddStyle registers or replaces a tag.
func (p *MarkupParser) AddStyle(tag string, s lipgloss.Style) {
	p.styles[tag] = s
	p.patterns[tag] = regexp.MustCompile(`\[` + regexp.QuoteMeta(tag) + `\](.*?)\[/` + regexp.QuoteMeta(tag) + `\]`)
}

// Render replaces every tag pair until none is left.
func (p *MarkupParser) Render(text string) string {
	tags := make([]string, 0, len(p.patterns))
	for tag := range p.patterns {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	result := text
	for {
		before := result
		for _, tag := range tags {
			pattern := p.patterns[tag]
			s := p.styles[tag]
			result = pattern.ReplaceAllStringFunc(result, func(match string) string {
				content := pattern.FindStringSubmatch(match)[1]
				if p.plain {
					return content
				}
				return s.Render(content)
			})
		}
		if result == before {
			return result
		}
	}
}
