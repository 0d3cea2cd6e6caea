package styles

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
)

// DefaultDebounce coalesces bursts of editor writes into one rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Watcher rebuilds styles whenever a file under an input's directory changes.
// Rebuild failures are logged and never stop the watcher.
type Watcher struct {
	pipeline *Pipeline
	inputs   []string
	opts     Options
	debounce time.Duration
	// OnRebuild, when set, is called after every rebuild with its result.
	OnRebuild func(ctx context.Context, err error)
}

// NewWatcher creates a watcher for inputs built with pipeline and opts.
func NewWatcher(pipeline *Pipeline, inputs []string, opts Options) *Watcher {
	return &Watcher{pipeline: pipeline, inputs: inputs, opts: opts, debounce: DefaultDebounce}
}

// WithDebounce overrides DefaultDebounce.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Run performs the initial build and then watches until ctx is done.
// Option conflicts are returned before anything is built.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.opts.Validate(); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	for _, dir := range w.watchRoots() {
		if err := addDirsRecursive(fsw, dir); err != nil {
			return err
		}
	}

	rebuildReq, trigger, stop := newDebouncer(w.debounce)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.rebuildWorker(ctx, rebuildReq)
	}()

	// Initial build goes through the same worker so it is serialized with
	// rebuilds triggered by early events.
	rebuildReq <- struct{}{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev, trigger)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Style watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) watchRoots() []string {
	seen := make(map[string]bool)
	var roots []string
	for _, input := range w.inputs {
		dir := filepath.Dir(input)
		if !seen[dir] {
			seen[dir] = true
			roots = append(roots, dir)
		}
	}
	return roots
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) || w.isOutput(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(fsw, ev.Name)
		}
	}
	slog.Debug("Style source changed", logfields.Path(ev.Name), "op", ev.Op.String())
	trigger()
}

// isOutput reports whether path lives in the output directory, which may
// sit below a watched source directory.
func (w *Watcher) isOutput(path string) bool {
	out, err := filepath.Abs(w.pipeline.outDir)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return abs == out || strings.HasPrefix(abs, out+string(filepath.Separator))
}

func (w *Watcher) rebuildWorker(ctx context.Context, rebuildReq <-chan struct{}) {
	cycle := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
			cycle++
			slog.Info("CSS build starting...", logfields.Cycle(cycle))
			err := w.pipeline.Build(ctx, w.inputs, w.opts)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				werr := ferrors.WatchCycleError("style rebuild failed").
					WithCause(err).
					WithContext("cycle", cycle).
					Build()
				observability.WarnContext(ctx, "CSS build error", logfields.Cycle(cycle), logfields.Error(werr))
			} else {
				slog.Info("CSS build completed.", logfields.Cycle(cycle))
			}
			if w.OnRebuild != nil {
				w.OnRebuild(ctx, err)
			}
		}
	}
}

// newDebouncer returns a request channel, a trigger that fires a request
// after d of quiet, and a stop function for the pending timer.
func newDebouncer(d time.Duration) (chan struct{}, func(), func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return rebuildReq, trigger, stop
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || (path != root && strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", "dir", path, "error", err)
			}
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for editor temp files, hidden files and
// the framework plugin's scratch files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "#") {
		return true
	}
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx")
}
