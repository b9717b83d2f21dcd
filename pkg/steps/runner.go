package steps

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/output"
	"github.com/arthur-debert/bundl/pkg/registry"
	"github.com/arthur-debert/bundl/pkg/rules"
)

// Transformer is the implementation behind a loader name.
type Transformer interface {
	Transform(ctx context.Context, r *Runner, opts rules.Options, a *Artifact) error
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(ctx context.Context, r *Runner, opts rules.Options, a *Artifact) error

func (f TransformerFunc) Transform(ctx context.Context, r *Runner, opts rules.Options, a *Artifact) error {
	return f(ctx, r, opts, a)
}

// Loader names understood by the default registry.
const (
	BabelLoader   = "babel-loader"
	SassLoader    = "sass-loader"
	PostCSSLoader = "postcss-loader"
	CSSLoader     = "css-loader"
	StyleLoader   = "style-loader"
	URLLoader     = "url-loader"
	FileLoader    = "file-loader"
)

// DefaultRegistry returns a registry holding every built-in loader.
func DefaultRegistry() registry.Registry[Transformer] {
	reg := registry.New[Transformer]()
	registry.MustRegister[Transformer](reg, BabelLoader, TransformerFunc(babel))
	registry.MustRegister[Transformer](reg, SassLoader, TransformerFunc(sass))
	registry.MustRegister[Transformer](reg, PostCSSLoader, TransformerFunc(postcss))
	registry.MustRegister[Transformer](reg, CSSLoader, TransformerFunc(css))
	registry.MustRegister[Transformer](reg, StyleLoader, TransformerFunc(style))
	registry.MustRegister[Transformer](reg, URLLoader, TransformerFunc(urlLoader))
	registry.MustRegister[Transformer](reg, FileLoader, TransformerFunc(fileLoader))
	return reg
}

var builtin = DefaultRegistry()

// Known reports whether name is a built-in loader. It is meant for
// rules.CompileOptions.KnownLoader.
func Known(name string) bool {
	return builtin.Has(name)
}

// StepObserver is told about every step that ran.
type StepObserver func(loader string, took time.Duration, err error)

// Runner executes pipelines. It is safe for concurrent use when its
// Emitter and SassCompiler are.
type Runner struct {
	Output       output.Spec
	Emitter      output.Emitter
	Sass         SassCompiler
	Transformers registry.Registry[Transformer]
	Observe      StepObserver

	logger zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithSass sets the compiler used by sass-loader.
func WithSass(c SassCompiler) Option {
	return func(r *Runner) { r.Sass = c }
}

// WithTransformers replaces the loader registry.
func WithTransformers(reg registry.Registry[Transformer]) Option {
	return func(r *Runner) { r.Transformers = reg }
}

// WithObserver installs a per-step callback.
func WithObserver(fn StepObserver) Option {
	return func(r *Runner) { r.Observe = fn }
}

// NewRunner creates a Runner emitting files through emitter.
func NewRunner(spec output.Spec, emitter output.Emitter, opts ...Option) *Runner {
	r := &Runner{
		Output:       spec,
		Emitter:      emitter,
		Transformers: builtin,
		logger:       logging.GetLogger("steps"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Known reports whether the runner has a transformer for name.
func (r *Runner) Known(name string) bool {
	return r.Transformers.Has(name)
}

// Run applies the pipeline to a, last step first.
func (r *Runner) Run(ctx context.Context, p rules.Pipeline, a *Artifact) error {
	for i := len(p) - 1; i >= 0; i-- {
		if err := r.Apply(ctx, p[i], a); err != nil {
			return err
		}
	}
	return nil
}

// Apply runs a single step.
func (r *Runner) Apply(ctx context.Context, step rules.Step, a *Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t, err := r.Transformers.Get(step.Loader)
	if err != nil {
		return errors.Wrapf(err, errors.ErrLoaderUnknown, "unknown loader %q", step.Loader).
			WithDetail("loader", step.Loader).
			WithDetail("path", a.Path)
	}

	start := time.Now()
	err = t.Transform(ctx, r, step.Options, a)
	took := time.Since(start)

	if r.Observe != nil {
		r.Observe(step.Loader, took, err)
	}
	r.logger.Trace().
		Str("loader", step.Loader).
		Str("path", a.Path).
		Dur("took", took).
		Err(err).
		Msg("Step finished")

	if err == nil {
		return nil
	}
	if errors.IsErrorCode(err, errors.ErrStepFailed) {
		return err
	}
	return errors.Wrapf(err, errors.ErrStepFailed, "%s failed on %s", step.Loader, a.Request()).
		WithDetail("loader", step.Loader).
		WithDetail("path", a.Path)
}

// Validate checks that every step of p, including url-loader fallbacks,
// names a known loader and that file names carry a content hash.
func (r *Runner) Validate(p rules.Pipeline) error {
	for _, step := range p {
		if err := r.validateStep(step); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) validateStep(step rules.Step) error {
	if !r.Known(step.Loader) {
		return errors.Newf(errors.ErrLoaderUnknown, "unknown loader %q", step.Loader).
			WithDetail("loader", step.Loader)
	}
	switch step.Loader {
	case FileLoader:
		return output.ValidateTemplate(r.assetName(step.Options), true)
	case URLLoader:
		return r.validateStep(fallbackStep(step.Options))
	}
	return nil
}
