package bundler

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/metrics"
	"github.com/arthur-debert/bundl/pkg/steps"
)

const pluginName = "bundl"

// buildState collects what the plugin callbacks learn during one build.
// esbuild runs callbacks concurrently.
type buildState struct {
	ctx    context.Context
	logger zerolog.Logger

	mu     sync.Mutex
	errs   []error
	inject bool
	loaded int
}

func newBuildState(ctx context.Context, logger zerolog.Logger) *buildState {
	return &buildState{ctx: ctx, logger: logger}
}

func (s *buildState) fail(err error) error {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
	return err
}

func (s *buildState) record(a *steps.Artifact) {
	s.mu.Lock()
	s.loaded++
	if a.Inject {
		s.inject = true
	}
	s.mu.Unlock()
}

func (s *buildState) errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

func (b *Bundler) plugin() api.Plugin {
	return api.Plugin{
		Name: pluginName,
		Setup: func(pb api.PluginBuild) {
			pb.OnResolve(api.OnResolveOptions{Filter: "^" + entryNamespace + ":"}, b.resolveEntry)
			pb.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: entryNamespace}, b.loadEntry)
			pb.OnResolve(api.OnResolveOptions{Filter: ".*"}, b.resolveURL)
			pb.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: "file"}, b.load)
		},
	}
}

func (b *Bundler) resolveEntry(args api.OnResolveArgs) (api.OnResolveResult, error) {
	return api.OnResolveResult{
		Path:      strings.TrimPrefix(args.Path, entryNamespace+":"),
		Namespace: entryNamespace,
	}, nil
}

// loadEntry generates the module of an entry with several files: one
// side-effect import per file, in declaration order.
func (b *Bundler) loadEntry(args api.OnLoadArgs) (api.OnLoadResult, error) {
	files, ok := b.cfg.Entry[args.Path]
	if !ok {
		return api.OnLoadResult{}, b.current().fail(
			errors.Newf(errors.ErrNotFound, "unknown entry %q", args.Path).WithDetail("entry", args.Path))
	}
	var src strings.Builder
	for _, f := range files {
		src.WriteString("import " + strconv.Quote(filepath.ToSlash(f)) + ";\n")
	}
	contents := src.String()
	return api.OnLoadResult{
		Contents:   &contents,
		Loader:     api.LoaderJS,
		ResolveDir: b.cfg.Context,
	}, nil
}

// resolveURL runs url() references found in stylesheets through their
// pipeline. The asset steps replace the file by a URL, which is what the
// stylesheet ends up referencing.
func (b *Bundler) resolveURL(args api.OnResolveArgs) (api.OnResolveResult, error) {
	if args.Kind != api.ResolveCSSURLToken {
		return api.OnResolveResult{}, nil
	}
	ref := args.Path
	if isExternalURL(ref) {
		return api.OnResolveResult{Path: ref, External: true}, nil
	}

	st := b.current()
	p, suffix := splitSuffix(ref)
	file := filepath.Join(args.ResolveDir, filepath.FromSlash(p))
	a, err := b.process(st, file, suffix)
	if err != nil {
		return api.OnResolveResult{}, st.fail(err)
	}
	if a.URL == "" {
		return api.OnResolveResult{}, st.fail(
			errors.Newf(errors.ErrStepFailed, "%s is referenced from a stylesheet but its pipeline does not produce a URL", a.Path).
				WithDetail("path", a.Path))
	}
	return api.OnResolveResult{Path: a.URL, External: true}, nil
}

func (b *Bundler) load(args api.OnLoadArgs) (api.OnLoadResult, error) {
	st := b.current()
	a, err := b.process(st, args.Path, args.Suffix)
	if err != nil {
		return api.OnLoadResult{}, st.fail(err)
	}
	contents := string(a.Contents)
	return api.OnLoadResult{
		Contents:   &contents,
		Loader:     a.Loader,
		ResolveDir: filepath.Dir(args.Path),
	}, nil
}

// process checks, dispatches and transforms one file.
func (b *Bundler) process(st *buildState, file, suffix string) (*steps.Artifact, error) {
	if i := strings.IndexByte(suffix, '#'); i >= 0 {
		suffix = suffix[:i]
	}
	request := b.request(file) + suffix

	if err := b.cases.Verify(file); err != nil {
		return nil, err
	}

	sel, err := b.rules.Dispatch(request)
	if err != nil {
		b.recorder.IncDispatch(metrics.UnhandledRule)
		st.logger.Debug().Err(err).Str("request", request).Msg("Dispatch failed")
		return nil, err
	}
	b.recorder.IncDispatch(sel.Rule.Name)
	st.logger.Trace().
		Str("request", request).
		Str("rule", sel.Rule.Name).
		Str("pipeline", sel.Pipeline.String()).
		Msg("Dispatched")

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", request).
			WithDetail("path", request)
	}

	a := steps.NewArtifact(request, file, data)
	a.SideEffects = sel.Rule.SideEffects
	if err := b.runner.Run(st.ctx, sel.Pipeline, a); err != nil {
		return nil, err
	}
	st.record(a)
	return a, nil
}

// request returns file relative to the context, slash separated. Files
// outside the context keep their absolute path.
func (b *Bundler) request(file string) string {
	rel, err := filepath.Rel(b.cfg.Context, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

func splitSuffix(ref string) (string, string) {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}

func isExternalURL(ref string) bool {
	lower := strings.ToLower(ref)
	for _, prefix := range []string{"data:", "http:", "https:", "//", "/", "#"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
