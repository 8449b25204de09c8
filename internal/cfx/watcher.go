package cfx

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
	"github.com/msto63/cfdkit/pkg/core/logging"
)

// DefaultDebounce collapses bursts of write events on one file
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc is called with the path of a changed file
type ChangeFunc func(ctx context.Context, path string) error

// WatcherConfig configures a Watcher
type WatcherConfig struct {
	// Files to watch; their directories are watched and other names ignored
	Files    []string
	Debounce time.Duration
	OnChange ChangeFunc
	Logger   *logging.Logger
}

// Watcher calls OnChange when a watched case file is written or recreated
type Watcher struct {
	cfg     WatcherConfig
	log     *logging.Logger
	files   map[string]bool
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	done    chan struct{}

	mu      sync.Mutex
	running bool
	changes int
}

// NewWatcher creates a watcher; call Start to begin watching
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if len(cfg.Files) == 0 {
		return nil, cfderror.New("watcher needs at least one file").WithCode(cfderror.CodeInvalidInput)
	}
	if cfg.OnChange == nil {
		return nil, cfderror.New("watcher needs a change callback").WithCode(cfderror.CodeInvalidInput)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New("cfx")
	}

	files := make(map[string]bool, len(cfg.Files))
	for _, f := range cfg.Files {
		files[absPath(f)] = true
	}
	return &Watcher{cfg: cfg, log: cfg.Logger, files: files}, nil
}

// Start begins watching. It returns once the watches are registered.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return cfderror.Wrap(err, "failed to create watcher").WithCode(cfderror.CodeEnvironmentError)
	}

	dirs := make(map[string]bool)
	for f := range w.files {
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return cfderror.Wrap(err, "failed to watch directory").
				WithCode(cfderror.CodeEnvironmentError).
				WithDetail("dir", dir)
		}
		dirs[dir] = true
	}

	w.watcher = watcher
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	w.running = true
	w.log.Info("Started watching case files", "files", len(w.files))

	go w.loop(ctx)
	return nil
}

// Stop ends watching and waits for the event loop to exit
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	done := w.done
	w.mu.Unlock()
	<-done
}

// Changes returns how many change callbacks ran
func (w *Watcher) Changes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.changes
}

func (w *Watcher) loop(ctx context.Context) {
	defer func() {
		w.watcher.Close()
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.done)
	}()

	// pending holds the time of the last event per file; a file fires
	// once it has been quiet for the debounce delay
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.cfg.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Stopping case watcher (context cancelled)")
			return

		case <-w.stopCh:
			w.log.Info("Stopping case watcher (stop signal)")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name := absPath(event.Name)
			if !w.files[name] {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				pending[name] = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("Watcher error", "error", err)

		case now := <-ticker.C:
			for name, last := range pending {
				if now.Sub(last) < w.cfg.Debounce {
					continue
				}
				delete(pending, name)
				w.fire(ctx, name)
			}
		}
	}
}

func (w *Watcher) fire(ctx context.Context, path string) {
	w.log.Info("Case file changed", "file", filepath.Base(path))
	if err := w.cfg.OnChange(ctx, path); err != nil {
		w.log.Error("Change handler failed", "file", path, "error", err)
	}
	w.mu.Lock()
	w.changes++
	w.mu.Unlock()
}
