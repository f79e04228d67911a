package plugin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/basestyle/internal/decorate"
	"github.com/dshills/basestyle/internal/dom"
	"github.com/dshills/basestyle/internal/filewatch"
	"github.com/dshills/basestyle/internal/logging"
	"github.com/dshills/basestyle/internal/loop"
	"github.com/dshills/basestyle/internal/notice"
	"github.com/dshills/basestyle/internal/script"
	"github.com/dshills/basestyle/internal/script/builtin"
	"github.com/dshills/basestyle/internal/settings"
)

// Config configures a Plugin.
type Config struct {
	// SettingsPath is the settings file. Empty keeps settings in memory,
	// starting from Settings or the defaults.
	SettingsPath string
	// Settings seeds an in-memory store when SettingsPath is empty.
	Settings *settings.Settings
	// LiveReload reloads the settings file when it changes on disk.
	LiveReload bool

	// Loop runs observer deliveries, debounced passes and reloads. Without
	// it they run synchronously, which only suits single-goroutine tests.
	Loop *loop.Loop

	Notifier notice.Notifier
	Logger   *logging.Logger

	// SnippetTimeout bounds one snippet evaluation. Zero uses the engine
	// defaults.
	SnippetTimeout time.Duration

	// AfterPass is called at the end of every decoration pass.
	AfterPass func(container dom.Element, stats decorate.Stats)
}

// Plugin is the decoration engine as seen by a host.
type Plugin struct {
	mu sync.Mutex

	cfg    Config
	logger *logging.Logger
	state  State
	err    error

	store     *settings.Store
	engines   *script.Registry
	resolver  *decorate.Resolver
	decorator *decorate.Decorator
	watcher   *decorate.Watcher
	editor    *settings.Editor
	files     *filewatch.Watcher
	sub       *settings.Subscription

	cleanups []func()
	views    map[uuid.UUID]*View
}

// New creates an unloaded plugin.
func New(cfg Config) *Plugin {
	if cfg.Notifier == nil {
		cfg.Notifier = notice.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NullLogger
	}
	return &Plugin{
		cfg:    cfg,
		logger: cfg.Logger.WithComponent("plugin"),
		state:  StateUnloaded,
		views:  make(map[uuid.UUID]*View),
	}
}

// Load reads the settings and builds the engine. It is called once.
func (p *Plugin) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateUnloaded:
	case StateClosed:
		return ErrClosed
	default:
		return ErrAlreadyLoaded
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.state = StateLoading
	if err := p.build(); err != nil {
		p.state = StateError
		p.err = err
		p.release()
		return err
	}

	p.state = StateActive
	p.logger.Info("loaded with %d column rules", len(p.store.Settings().Columns))
	return nil
}

func (p *Plugin) build() error {
	storeOpts := []settings.StoreOption{settings.WithStoreLogger(p.cfg.Logger.WithComponent("settings"))}
	if p.cfg.SettingsPath != "" {
		store, err := settings.Open(p.cfg.SettingsPath, storeOpts...)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		p.store = store
	} else {
		initial := settings.Defaults()
		if p.cfg.Settings != nil {
			initial = p.cfg.Settings.Clone()
		}
		p.store = settings.NewMemoryStore(initial, storeOpts...)
	}

	engines, err := builtin.Registry(p.cfg.SnippetTimeout)
	if err != nil {
		return fmt.Errorf("snippet engines: %w", err)
	}
	p.engines = engines

	decOpts := []decorate.Option{
		decorate.WithNotifier(p.cfg.Notifier),
		decorate.WithLogger(p.cfg.Logger.WithComponent("decorate")),
	}
	if p.cfg.AfterPass != nil {
		decOpts = append(decOpts, decorate.WithAfterPass(p.cfg.AfterPass))
	}
	p.resolver = decorate.NewResolver(engines)
	p.decorator = decorate.NewDecorator(p.resolver, decOpts...)

	watchOpts := []decorate.WatcherOption{decorate.WithWatcherLogger(p.cfg.Logger.WithComponent("watcher"))}
	if p.cfg.Loop != nil {
		watchOpts = append(watchOpts, decorate.WithScheduler(p.cfg.Loop.Schedule))
	}
	p.watcher = decorate.NewWatcher(p.decorator, p.store, watchOpts...)
	p.sub = p.store.Subscribe(p.settingsChanged(p.watcher))

	p.editor = settings.NewEditor(p.store,
		settings.WithNotifier(p.cfg.Notifier),
		settings.WithEngines(engines.Has),
	)

	if p.cfg.LiveReload && p.cfg.SettingsPath != "" {
		fwOpts := []filewatch.Option{filewatch.WithLogger(p.cfg.Logger.WithComponent("filewatch").Logr())}
		if p.cfg.Loop != nil {
			fwOpts = append(fwOpts, filewatch.WithScheduler(p.cfg.Loop.Schedule))
		}
		files, err := filewatch.New(fwOpts...)
		if err != nil {
			return fmt.Errorf("watch settings: %w", err)
		}
		p.files = files
		if err := p.store.Watch(files, p.cfg.Logger.WithComponent("settings").Logr()); err != nil {
			return fmt.Errorf("watch settings: %w", err)
		}
	}
	return nil
}

// OnActiveViewChange hooks the view if it shows a base file. It reports
// whether the view was hooked now; a container hooked before is left
// alone. It must run on the loop.
func (p *Plugin) OnActiveViewChange(v *View) bool {
	p.mu.Lock()
	if p.state != StateActive {
		p.mu.Unlock()
		return false
	}
	w := p.watcher
	p.mu.Unlock()

	if !v.IsBase() || v.Container.IsZero() {
		return false
	}
	if !w.Attach(v.Container, p) {
		return false
	}

	p.mu.Lock()
	p.views[v.ID] = v
	p.mu.Unlock()
	p.logger.WithField("view", v.ID.String()).Debug("hooked %s", v.Path)
	return true
}

// settingsChanged returns the store observer that keeps hooked views in
// step with edits: rule and prefix changes restyle every live container,
// and an attribute observation toggle re-applies the observer options.
// The debounce delay is read per pass and needs nothing here.
func (p *Plugin) settingsChanged(w *decorate.Watcher) settings.Observer {
	return func(c settings.Change) {
		restyle, reobserve := changeEffects(c)
		if !restyle && !reobserve {
			return
		}
		run := func() {
			if reobserve {
				w.Reobserve()
			}
			if restyle {
				n := w.TriggerAll()
				p.logger.Debug("settings %s changed, restyling %d views", changeName(c), n)
			}
		}
		if p.cfg.Loop != nil {
			p.cfg.Loop.Schedule(run)
			return
		}
		run()
	}
}

// changeEffects reports whether c alters pass output and whether it
// alters what the observers watch.
func changeEffects(c settings.Change) (restyle, reobserve bool) {
	switch {
	case c.Type == settings.ChangeReload:
		return true, true
	case c.Path == "cssClassPrefix", c.Path == "columns", strings.HasPrefix(c.Path, "columns["):
		return true, false
	case c.Path == "observeAttributes":
		return false, true
	default:
		return false, false
	}
}

func changeName(c settings.Change) string {
	if c.Path == "" {
		return c.Type.String()
	}
	return c.Path
}

// Register adds a teardown action run by Unload, latest first.
func (p *Plugin) Register(cleanup func()) {
	if cleanup == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleanups = append(p.cleanups, cleanup)
}

// Unload runs the teardown actions and releases the engine. Calling it
// again is a no-op.
func (p *Plugin) Unload() error {
	p.mu.Lock()
	if p.state == StateClosed || p.state == StateUnloading {
		p.mu.Unlock()
		return nil
	}
	p.state = StateUnloading
	cleanups := p.cleanups
	p.cleanups = nil
	p.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		p.runCleanup(cleanups[i])
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.release()
	p.state = StateClosed
	p.logger.Info("unloaded")
	return err
}

func (p *Plugin) runCleanup(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("teardown panic: %v", r)
		}
	}()
	fn()
}

// release closes whatever build created. Callers hold p.mu.
func (p *Plugin) release() error {
	var errs []error
	if p.sub != nil {
		p.sub.Unsubscribe()
		p.sub = nil
	}
	if p.watcher != nil {
		p.watcher.Close()
	}
	if p.files != nil {
		errs = append(errs, p.files.Close())
		p.files = nil
	}
	if p.engines != nil {
		errs = append(errs, p.engines.Close())
	}
	if p.store != nil {
		p.store.Close()
	}
	return errors.Join(errs...)
}

// State returns the lifecycle state.
func (p *Plugin) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the error that made Load fail.
func (p *Plugin) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Hooked returns how many views have been hooked.
func (p *Plugin) Hooked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.views)
}

// HookedView returns the hooked view with the given ID.
func (p *Plugin) HookedView(id uuid.UUID) (*View, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.views[id]
	return v, ok
}

// Settings returns a copy of the current settings.
func (p *Plugin) Settings() settings.Settings {
	p.mu.Lock()
	store := p.store
	p.mu.Unlock()
	if store == nil {
		return settings.Defaults()
	}
	return store.Settings()
}

// Store returns the settings store, nil before Load.
func (p *Plugin) Store() *settings.Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store
}

// Editor returns the settings editor, nil before Load.
func (p *Plugin) Editor() *settings.Editor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.editor
}

// Decorator returns the decorator, nil before Load.
func (p *Plugin) Decorator() *decorate.Decorator {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.decorator
}

// Watcher returns the change watcher, nil before Load.
func (p *Plugin) Watcher() *decorate.Watcher {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watcher
}

// Engines returns the snippet engine registry, nil before Load.
func (p *Plugin) Engines() *script.Registry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engines
}

// Decorate runs one pass over container with the current settings,
// outside of any watcher. It must run on the loop.
func (p *Plugin) Decorate(container dom.Element) (decorate.Stats, error) {
	p.mu.Lock()
	if p.state != StateActive {
		p.mu.Unlock()
		return decorate.Stats{}, ErrNotLoaded
	}
	d, store := p.decorator, p.store
	p.mu.Unlock()
	return d.Decorate(container, store.Settings()), nil
}
