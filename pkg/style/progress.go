package style

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
)

// Progress shows a spinner while a build runs. When disabled it prints
// only the final line.
type Progress struct {
	out     io.Writer
	enabled bool
	spinner *pterm.SpinnerPrinter
	report  ErrorReport
}

// NewProgress returns a spinner writing to out. Use enabled=false for
// pipes and CI logs.
func NewProgress(out io.Writer, enabled bool) *Progress {
	if out == nil {
		out = os.Stderr
	}
	return &Progress{out: out, enabled: enabled, report: ErrorReport{Plain: !enabled}}
}

// Start begins a step.
func (p *Progress) Start(text string) {
	if !p.enabled {
		return
	}
	p.stop()
	spinner, err := pterm.DefaultSpinner.WithWriter(p.out).WithRemoveWhenDone(true).Start(text)
	if err == nil {
		p.spinner = spinner
	}
}

// Update replaces the spinner text.
func (p *Progress) Update(text string) {
	if p.spinner != nil {
		p.spinner.UpdateText(text)
	}
}

// Success ends the step with a done line.
func (p *Progress) Success(text string) {
	p.stop()
	fmt.Fprint(p.out, p.report.Done(text))
}

// Fail ends the step with the rendered errors.
func (p *Progress) Fail(errs ...error) {
	p.stop()
	fmt.Fprint(p.out, p.report.Errors(errs...))
}

// Warn prints warnings without ending the step.
func (p *Progress) Warn(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	spinning := p.spinner != nil
	p.stop()
	fmt.Fprint(p.out, p.report.Warnings(warnings))
	if spinning {
		p.Start("Building")
	}
}

func (p *Progress) stop() {
	if p.spinner != nil {
		_ = p.spinner.Stop()
		p.spinner = nil
	}
}
