package topics

import (
	"github.com/arthur-debert/bundl/pkg/style"
)

// Renderer formats topic content for display.
type Renderer interface {
	Render(content string, ext string) string
}

// PlainRenderer returns content as-is.
type PlainRenderer struct{}

func (PlainRenderer) Render(content string, _ string) string {
	return content
}

// MarkdownRenderer renders .md topics through glamour when the output is a
// terminal.
type MarkdownRenderer struct {
	Format style.Format
	Width  int
}

func (r MarkdownRenderer) Render(content string, ext string) string {
	if ext != ".md" {
		return content
	}
	return style.RenderMarkdown(content, r.Format, r.Width)
}
