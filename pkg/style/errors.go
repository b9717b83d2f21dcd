package style

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/bundl/pkg/errors"
)

// ErrorReport renders build failures and warnings the way webpack's
// friendly errors output does: a badge, a one-line summary, then each
// problem with its details.
type ErrorReport struct {
	Plain bool
}

func (r ErrorReport) badge(b string, s func(...string) string) string {
	if r.Plain {
		return b
	}
	return s(" " + b + " ")
}

// Errors renders one or more failures.
func (r ErrorReport) Errors(errs ...error) string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	noun := "error"
	if len(errs) > 1 {
		noun = "errors"
	}
	fmt.Fprintf(&b, "%s Failed to compile with %d %s\n", r.badge("ERROR", ErrorBadge.Render), len(errs), noun)
	for _, err := range errs {
		b.WriteString("\n")
		b.WriteString(r.describe(err))
	}
	return b.String()
}

// Warnings renders non-fatal problems.
func (r ErrorReport) Warnings(warnings []string) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s Compiled with %d warning(s)\n\n", r.badge("WARNING", WarningBadge.Render), len(warnings))
	for _, w := range warnings {
		b.WriteString("  " + w + "\n")
	}
	return b.String()
}

// Done renders the success line.
func (r ErrorReport) Done(summary string) string {
	return r.badge("DONE", DoneBadge.Render) + " " + summary + "\n"
}

func (r ErrorReport) describe(err error) string {
	var b strings.Builder
	code := errors.GetErrorCode(err)
	message := err.Error()
	if code != errors.ErrUnknown {
		message = strings.TrimPrefix(message, "["+string(code)+"] ")
		label := string(code)
		if !r.Plain {
			label = ErrorStyle.Render(label)
		}
		fmt.Fprintf(&b, "%s  %s\n", label, message)
	} else {
		fmt.Fprintf(&b, "%s\n", message)
	}

	details := errors.GetErrorDetails(err)
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		line := fmt.Sprintf("%s: %v", k, details[k])
		if !r.Plain {
			line = MutedStyle.Render(line)
		}
		b.WriteString(Indent(line, 1) + "\n")
	}
	return b.String()
}
