package bundler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/arthur-debert/bundl/pkg/errors"
	"github.com/arthur-debert/bundl/pkg/filesystem"
)

// skippedDirs are never watched.
var skippedDirs = map[string]bool{"node_modules": true, ".git": true}

// Watch builds once, then rebuilds whenever a file below the context
// changes. Changes arriving within the aggregate timeout are folded into
// one rebuild. onBuild is called after every build. Watch returns when ctx
// is done.
func (b *Bundler) Watch(ctx context.Context, onBuild func(*Result, error)) error {
	bctx, err := b.newContext()
	if err != nil {
		return err
	}
	defer bctx.Dispose()

	w, err := newWatcher(b)
	if err != nil {
		return err
	}
	defer w.close()

	onBuild(b.rebuild(ctx, bctx))

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Watch stopped")
			return nil
		case err := <-w.errs:
			b.logger.Warn().Err(err).Msg("File watcher error")
		case changed := <-w.changes:
			b.logger.Info().Strs("files", changed).Msg("Files changed, rebuilding")
			b.cases.Reset()
			onBuild(b.rebuild(ctx, bctx))
		}
	}
}

// watcher debounces fsnotify events into batches of changed paths.
type watcher struct {
	fsw     *fsnotify.Watcher
	root    string
	outDir  string
	ignored []glob.Glob
	delay   time.Duration

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer

	changes chan []string
	errs    chan error
	done    chan struct{}
}

func newWatcher(b *Bundler) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot start file watcher")
	}
	w := &watcher{
		fsw:     fsw,
		root:    b.cfg.Context,
		outDir:  b.spec.Directory,
		delay:   b.cfg.Watch.AggregateTimeout,
		pending: make(map[string]bool),
		changes: make(chan []string, 1),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	for _, pattern := range b.cfg.Watch.Ignored {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			_ = fsw.Close()
			return nil, errors.Wrapf(err, errors.ErrPatternInvalid, "invalid watch.ignored pattern %q", pattern).
				WithDetail("pattern", pattern)
		}
		w.ignored = append(w.ignored, g)
	}
	if b.cfg.Watch.Poll > 0 {
		b.logger.Debug().Dur("poll", b.cfg.Watch.Poll).Msg("Polling is not used, native file events are")
	}

	if err := w.addTree(b.fs, w.root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	go w.loop()
	return w, nil
}

// addTree watches dir and every directory below it that is not skipped.
func (w *watcher) addTree(fsys filesystem.FS, dir string) error {
	if w.skip(dir) {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot watch %s", dir)
	}
	return filesystem.Walk(fsys, dir, func(rel string, entry os.DirEntry) error {
		if !entry.IsDir() {
			return nil
		}
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if w.skip(p) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot watch %s", p)
		}
		return nil
	})
}

func (w *watcher) skip(p string) bool {
	if p == w.outDir || strings.HasPrefix(p, w.outDir+string(filepath.Separator)) {
		return true
	}
	if skippedDirs[filepath.Base(p)] && p != w.root {
		return true
	}
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, g := range w.ignored {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func (w *watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

func (w *watcher) handle(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod || w.skip(event.Name) {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(filesystem.NewOS(), event.Name); err != nil {
				select {
				case w.errs <- err:
				default:
				}
			}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[event.Name] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.flush)
}

func (w *watcher) flush() {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	select {
	case w.changes <- changed:
	case <-w.done:
	}
}

func (w *watcher) close() {
	close(w.done)
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	_ = w.fsw.Close()
}
