package bundler

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/bundl/pkg/casecheck"
	"github.com/arthur-debert/bundl/pkg/config"
	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/filesystem"
	"github.com/arthur-debert/bundl/pkg/html"
	"github.com/arthur-debert/bundl/pkg/logging"
	"github.com/arthur-debert/bundl/pkg/metrics"
	"github.com/arthur-debert/bundl/pkg/output"
	"github.com/arthur-debert/bundl/pkg/rules"
	"github.com/arthur-debert/bundl/pkg/static"
	"github.com/arthur-debert/bundl/pkg/steps"
)

// Options are the collaborators of a Bundler. Zero values select the
// defaults: no metrics, Dart Sass from the sass config section and the OS
// filesystem.
type Options struct {
	Recorder metrics.Recorder
	Sass     steps.SassCompiler
	FS       filesystem.FS
}

// OutputFile is one file esbuild wrote.
type OutputFile struct {
	// Name is relative to the output directory, slash separated.
	Name  string
	Kind  string
	Bytes int
	// Entry is the source entry point, set on entry bundles only.
	Entry string
	URL   string
}

// Result describes one build.
type Result struct {
	ID       string
	Duration time.Duration
	Outputs  []OutputFile
	// Assets are the files emitted by pipeline steps.
	Assets []string
	// Copied counts the static files copied.
	Copied   int
	HTML     string
	Modules  int
	Warnings []string
	Errors   []error
}

// Bundler builds one project.
type Bundler struct {
	cfg      *config.Config
	rules    *rules.Ruleset
	spec     output.Spec
	env      map[string]string
	runner   *steps.Runner
	cases    *casecheck.Checker
	copier   *static.Copier
	fs       filesystem.FS
	recorder metrics.Recorder
	sass     steps.SassCompiler
	ownsSass bool
	warnings []string
	logger   zerolog.Logger

	state atomic.Pointer[buildState]
}

// New prepares a Bundler for cfg. When rs is nil the rules are compiled
// from cfg. Every pipeline is validated up front, and in strict mode any
// rule conflict is an error.
func New(cfg *config.Config, rs *rules.Ruleset, opts Options) (*Bundler, error) {
	logger := logging.GetLogger("bundler")

	c := *cfg
	abs, err := filepath.Abs(c.Context)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigValid, "invalid context %s", c.Context)
	}
	c.Context = abs

	spec := output.FromConfig(&c)
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	if rs == nil {
		if rs, err = rules.FromConfig(&c, steps.Known); err != nil {
			return nil, err
		}
	}

	env, err := EnvValues(&c)
	if err != nil {
		return nil, err
	}

	b := &Bundler{
		cfg:      &c,
		rules:    rs,
		spec:     spec,
		env:      env,
		fs:       opts.FS,
		recorder: opts.Recorder,
		sass:     opts.Sass,
		logger:   logger,
	}
	if b.fs == nil {
		b.fs = filesystem.NewOS()
	}
	if b.recorder == nil {
		b.recorder = metrics.NoopRecorder{}
	}
	if b.sass == nil {
		b.sass = steps.NewDartSass(c.Sass.Binary, c.Sass.Timeout)
		b.ownsSass = true
	}

	b.runner = steps.NewRunner(spec, output.NewDirEmitter(spec.Directory),
		steps.WithSass(b.sass),
		steps.WithObserver(func(loader string, took time.Duration, err error) {
			b.recorder.ObserveStepDuration(loader, took, err == nil)
		}),
	)
	for _, rule := range rs.Rules() {
		if err := b.runner.Validate(rule.Use); err != nil {
			return nil, errors.Wrapf(err, errors.GetErrorCode(err), "rule %s", rule.Name).
				WithDetail("rule", rule.Name)
		}
	}

	if conflicts := rs.Check(); len(conflicts) > 0 {
		if c.Strict {
			return nil, errors.Newf(errors.ErrConfigValid, "%d rule conflict(s): %s", len(conflicts), conflicts[0]).
				WithDetail("conflicts", conflicts)
		}
		for _, conflict := range conflicts {
			b.warnings = append(b.warnings, conflict.String())
		}
	}

	b.cases = casecheck.New(b.fs, c.Context)
	if b.copier, err = static.NewCopier(b.fs, c.Copy.Ignore); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("context", c.Context).
		Str("output", spec.Directory).
		Int("entries", len(c.Entry)).
		Int("rules", len(rs.Rules())).
		Msg("Bundler ready")

	return b, nil
}

// Config returns the configuration with an absolute context.
func (b *Bundler) Config() *config.Config {
	return b.cfg
}

// Close stops the Sass compiler if the Bundler started it.
func (b *Bundler) Close() error {
	if !b.ownsSass {
		return nil
	}
	if closer, ok := b.sass.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Build runs one build.
func (b *Bundler) Build(ctx context.Context) (*Result, error) {
	bctx, err := b.newContext()
	if err != nil {
		return nil, err
	}
	defer bctx.Dispose()
	return b.rebuild(ctx, bctx)
}

func (b *Bundler) newContext() (api.BuildContext, error) {
	opts, err := b.buildOptions()
	if err != nil {
		return nil, err
	}
	bctx, cerr := api.Context(opts)
	if cerr != nil {
		errs := messageErrors(cerr.Errors)
		if len(errs) == 0 {
			return nil, errors.New(errors.ErrBuildFailed, "cannot create build context")
		}
		return nil, errors.Wrap(errs[0], errors.ErrConfigValid, "cannot create build context")
	}
	return bctx, nil
}

func (b *Bundler) current() *buildState {
	if st := b.state.Load(); st != nil {
		return st
	}
	return newBuildState(context.Background(), b.logger)
}

func (b *Bundler) rebuild(ctx context.Context, bctx api.BuildContext) (*Result, error) {
	start := time.Now()
	result := &Result{ID: uuid.NewString(), Warnings: append([]string(nil), b.warnings...)}
	logger := logging.WithBuild(b.logger, result.ID)
	logger.Info().Msg("Build started")

	st := newBuildState(ctx, logger)
	b.state.Store(st)
	defer b.state.Store(nil)

	emitter := output.NewDirEmitter(b.spec.Directory)
	b.runner.Emitter = emitter

	stop := context.AfterFunc(ctx, bctx.Cancel)
	res := bctx.Rebuild()
	stop()

	result.Duration = time.Since(start)
	result.Modules = st.loaded
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, w.Text)
	}

	errs := st.errors()
	for _, m := range res.Errors {
		if m.PluginName == pluginName {
			continue
		}
		errs = append(errs, messageErrors([]api.Message{m})...)
	}
	result.Errors = errs

	b.recorder.ObserveBuildDuration(result.Duration)
	if ctx.Err() != nil {
		b.recorder.IncBuildOutcome(metrics.OutcomeCanceled)
		logger.Warn().Dur("took", result.Duration).Msg("Build canceled")
		return result, errors.Wrap(ctx.Err(), errors.ErrBuildFailed, "build canceled")
	}
	if len(errs) > 0 || len(res.Errors) > 0 {
		b.recorder.IncBuildOutcome(metrics.OutcomeFailed)
		logger.Error().
			Int("errors", len(errs)).
			Dur("took", result.Duration).
			Msg("Build failed")
		first := errs
		if len(first) == 0 {
			first = []error{errors.New(errors.ErrBuildFailed, "bundling engine reported errors")}
		}
		return result, errors.Wrapf(first[0], errors.ErrBuildFailed, "build failed with %d error(s)", len(errs)).
			WithDetail("errors", len(errs))
	}

	result.Assets = emitter.Emitted()
	if err := b.finish(st, res, result); err != nil {
		b.recorder.IncBuildOutcome(metrics.OutcomeFailed)
		result.Errors = append(result.Errors, err)
		return result, errors.Wrap(err, errors.ErrBuildFailed, "build failed")
	}

	result.Duration = time.Since(start)
	b.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
	logger.Info().
		Int("modules", result.Modules).
		Int("outputs", len(result.Outputs)).
		Int("assets", len(result.Assets)).
		Dur("took", result.Duration).
		Msg("Build complete")
	return result, nil
}

// finish runs the steps after esbuild succeeded: it records outputs,
// copies the static directory and writes the HTML entry.
func (b *Bundler) finish(st *buildState, res api.BuildResult, result *Result) error {
	meta, err := parseMetafile(res.Metafile)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot read build metadata")
	}

	for key, out := range meta.Outputs {
		name := b.outputName(key)
		kind := outputKind(key)
		result.Outputs = append(result.Outputs, OutputFile{
			Name:  name,
			Kind:  kind,
			Bytes: out.Bytes,
			Entry: out.EntryPoint,
			URL:   b.spec.URL(name),
		})
		b.recorder.AddOutputBytes(kind, out.Bytes)
	}
	sortOutputs(result.Outputs)

	if b.cfg.Copy.From != "" {
		n, err := b.copier.Copy(b.cfg.Abs(b.cfg.Copy.From), b.cfg.Abs(b.cfg.Copy.To))
		if err != nil {
			return err
		}
		result.Copied = n
	}

	if b.cfg.HTML.Filename == "" {
		return nil
	}
	scripts, styles := meta.entryOutputs()
	page := html.Page{
		Title:  filepath.Base(b.cfg.Context),
		Env:    b.env,
		Module: b.cfg.Output.Format == "esm",
	}
	for _, s := range scripts {
		page.Scripts = append(page.Scripts, b.spec.URL(b.outputName(s)))
	}
	if st.inject {
		for _, s := range styles {
			page.Styles = append(page.Styles, b.spec.URL(b.outputName(s)))
		}
	}
	if title, ok := b.env["TITLE"]; ok {
		page.Title = title
	}

	tmpl, err := b.template()
	if err != nil {
		return err
	}
	doc, err := html.Render(b.cfg.HTML.Template, tmpl, page)
	if err != nil {
		return err
	}
	target := filepath.Join(b.spec.Directory, filepath.FromSlash(b.cfg.HTML.Filename))
	if err := b.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", filepath.Dir(target))
	}
	if err := b.fs.WriteFile(target, doc, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", target)
	}
	result.HTML = b.cfg.HTML.Filename
	b.recorder.AddOutputBytes("html", len(doc))
	return nil
}

// template reads the HTML template. A missing file selects the default.
func (b *Bundler) template() ([]byte, error) {
	if b.cfg.HTML.Template == "" {
		return nil, nil
	}
	data, err := b.fs.ReadFile(b.cfg.Abs(b.cfg.HTML.Template))
	if err != nil {
		if os.IsNotExist(err) {
			b.logger.Debug().Str("template", b.cfg.HTML.Template).Msg("No HTML template, using the default")
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", b.cfg.HTML.Template)
	}
	return data, nil
}

// outputName converts a metafile key, relative to the context, to a name
// relative to the output directory.
func (b *Bundler) outputName(key string) string {
	abs := filepath.Join(b.cfg.Context, filepath.FromSlash(key))
	rel, err := filepath.Rel(b.spec.Directory, abs)
	if err != nil {
		return key
	}
	return filepath.ToSlash(rel)
}

// messageErrors converts esbuild messages into BUILD_FAILED errors that
// carry the source location.
func messageErrors(msgs []api.Message) []error {
	out := make([]error, 0, len(msgs))
	for _, m := range msgs {
		text := m.Text
		err := errors.New(errors.ErrBuildFailed, text)
		if m.Location != nil {
			err = errors.Newf(errors.ErrBuildFailed, "%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, text).
				WithDetail("file", m.Location.File).
				WithDetail("line", m.Location.Line)
			if lt := strings.TrimSpace(m.Location.LineText); lt != "" {
				err = err.WithDetail("source", lt)
			}
		}
		out = append(out, err)
	}
	return out
}
