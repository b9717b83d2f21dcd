package steps

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/godartsass/v2"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/rules"
)

// Syntax is the input dialect of a stylesheet.
type Syntax string

const (
	SyntaxSCSS Syntax = "scss"
	SyntaxSass Syntax = "sass"
)

// SassInput is one compilation request.
type SassInput struct {
	Source       string
	Syntax       Syntax
	File         string
	IncludePaths []string
	Compressed   bool
}

// SassCompiler compiles SCSS and indented Sass to CSS.
type SassCompiler interface {
	Compile(ctx context.Context, in SassInput) (string, error)
}

// sass compiles the artifact's stylesheet source.
func sass(ctx context.Context, r *Runner, opts rules.Options, a *Artifact) error {
	if r.Sass == nil {
		return errors.New(errors.ErrNotImplemented, "no sass compiler configured")
	}

	in := SassInput{
		Source:       string(a.Contents),
		Syntax:       SyntaxSCSS,
		File:         a.File,
		IncludePaths: opts.GetStrings("includePaths"),
		Compressed:   opts.GetString("outputStyle", "") == "compressed",
	}
	if a.Ext() == "sass" {
		in.Syntax = SyntaxSass
	}
	if a.File != "" {
		in.IncludePaths = append([]string{filepath.Dir(a.File)}, in.IncludePaths...)
	}

	out, err := r.Sass.Compile(ctx, in)
	if err != nil {
		return err
	}
	a.Contents = []byte(out)
	return nil
}

// DartSass runs the Dart Sass embedded compiler. The compiler process is
// started on first use and shared until Close.
type DartSass struct {
	Binary  string
	Timeout time.Duration

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

// NewDartSass returns a compiler using binary, or the dart-sass found on
// PATH when binary is empty.
func NewDartSass(binary string, timeout time.Duration) *DartSass {
	return &DartSass{Binary: binary, Timeout: timeout}
}

func (d *DartSass) start() (*godartsass.Transpiler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.transpiler != nil {
		return d.transpiler, nil
	}

	logger := logging.GetLogger("sass")
	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: d.Binary,
		Timeout:                  d.Timeout,
		LogEventHandler: func(e godartsass.LogEvent) {
			logger.Warn().Str("event", fmt.Sprint(e.Type)).Msg(e.Message)
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrNotFound,
			"dart-sass is required for sass-loader; install it or set sass.binary")
	}
	d.transpiler = t
	return t, nil
}

// Compile implements SassCompiler.
func (d *DartSass) Compile(ctx context.Context, in SassInput) (string, error) {
	t, err := d.start()
	if err != nil {
		return "", err
	}

	args := godartsass.Args{
		Source:       in.Source,
		IncludePaths: in.IncludePaths,
		SourceSyntax: godartsass.SourceSyntaxSCSS,
		OutputStyle:  godartsass.OutputStyleExpanded,
	}
	if in.Syntax == SyntaxSass {
		args.SourceSyntax = godartsass.SourceSyntaxSASS
	}
	if in.Compressed {
		args.OutputStyle = godartsass.OutputStyleCompressed
	}
	if in.File != "" {
		args.URL = "file://" + filepath.ToSlash(in.File)
	}

	type result struct {
		css string
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := t.Execute(args)
		done <- result{res.CSS, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.css, res.err
	}
}

// Close stops the compiler process if it was started.
func (d *DartSass) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.transpiler == nil {
		return nil
	}
	err := d.transpiler.Close()
	d.transpiler = nil
	return err
}
