// Package companion wires the companion selection core to desktop entries,
// a terminal chooser and file-backed persistence.
package companion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"pkt.systems/companion/core"
	"pkt.systems/companion/internal/chooser"
	"pkt.systems/companion/internal/desktopentry"
	"pkt.systems/companion/internal/eventbus"
	"pkt.systems/companion/internal/launch"
	"pkt.systems/companion/internal/persist"
	"pkt.systems/companion/schema"
	"pkt.systems/pslog"
)

// Config configures the composed app.
type Config struct {
	StateDir       string
	Namespace      string
	DataDirs       []string
	Locale         string
	IncludeActions bool
	LookupTimeout  time.Duration
	ChooserTitle   string
	LaunchFallback string

	// DefaultCompanion is seeded when nothing is saved and written by
	// ResetToDefault. Accepts "namespace" or "namespace/member".
	DefaultCompanion string
}

// Registry is the metadata source the app needs: labels for resolution,
// candidates for the chooser and commands for launching.
type Registry interface {
	core.AppRegistry
	chooser.Catalog
	launch.CommandSource
}

// Deps overrides the default components. Zero values select the defaults.
type Deps struct {
	Logger    pslog.Logger
	Registry  Registry
	Store     core.Store
	Host      core.ChooserHost
	Input     io.Reader
	Output    io.Writer
	Observers []core.Observer
	Start     launch.StartFunc
}

// App is the composed companion selector.
type App struct {
	selector  *core.Selector
	resolver  *core.Resolver
	bus       *eventbus.Bus
	launcher  *launch.Launcher
	registry  Registry
	host      core.ChooserHost
	store     core.Store
	log       pslog.Logger
	defaultID *schema.ComponentID

	closeOnce sync.Once
}

// New composes the app.
func New(cfg Config, deps Deps) (*App, error) {
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	namespace := strings.TrimSpace(cfg.Namespace)
	if namespace == "" {
		namespace = schema.DefaultNamespace
	}

	store := deps.Store
	if store == nil {
		if strings.TrimSpace(cfg.StateDir) == "" {
			return nil, errors.New("state directory is required")
		}
		fileStore, err := persist.NewStoreWithLogger(cfg.StateDir, namespace, logger)
		if err != nil {
			return nil, err
		}
		store = fileStore
	}

	registry := deps.Registry
	if registry == nil {
		registry = desktopentry.New(desktopentry.Config{
			Dirs:           cfg.DataDirs,
			Locale:         cfg.Locale,
			IncludeActions: cfg.IncludeActions,
			Logger:         logger,
		})
	}

	host := deps.Host
	if host == nil {
		terminal, err := chooser.New(chooser.Config{
			Catalog: registry,
			Input:   deps.Input,
			Output:  deps.Output,
		})
		if err != nil {
			return nil, err
		}
		host = terminal
	}

	resolver := core.NewResolver(core.ResolverConfig{
		LookupTimeout: cfg.LookupTimeout,
		Logger:        logger,
	})
	selector, err := core.NewSelector(core.SelectorDeps{
		Host:     host,
		Registry: registry,
		Store:    store,
		Resolver: resolver,
		Logger:   logger,
		Title:    cfg.ChooserTitle,
	})
	if err != nil {
		return nil, err
	}

	bus := eventbus.New(logger)
	observers := make([]core.Observer, 0, len(deps.Observers)+1)
	observers = append(observers, bus)
	observers = append(observers, deps.Observers...)
	selector.SetObserver(observerFanout{observers: observers})

	launcher, err := launch.New(launch.Config{
		Commands: registry,
		Fallback: cfg.LaunchFallback,
		Start:    deps.Start,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	var defaultID *schema.ComponentID
	if raw := strings.TrimSpace(cfg.DefaultCompanion); raw != "" {
		id, err := schema.ParseComponentID(raw)
		if err != nil {
			return nil, fmt.Errorf("default companion: %w", err)
		}
		defaultID = &id
	}

	logger.Debug("companion app ready", "namespace", namespace, "state_dir", cfg.StateDir)
	return &App{
		selector:  selector,
		resolver:  resolver,
		bus:       bus,
		launcher:  launcher,
		registry:  registry,
		host:      host,
		store:     store,
		log:       logger,
		defaultID: defaultID,
	}, nil
}

// Selector returns the selection core.
func (a *App) Selector() *core.Selector { return a.selector }

// Bus returns the selection event bus.
func (a *App) Bus() *eventbus.Bus { return a.bus }

// Launcher returns the companion launcher.
func (a *App) Launcher() *launch.Launcher { return a.launcher }

// Registry returns the metadata source.
func (a *App) Registry() Registry { return a.registry }

// Resolve returns the display name for id without persisting anything.
func (a *App) Resolve(ctx context.Context, id schema.ComponentID) string {
	return a.resolver.Resolve(ctx, id, a.registry)
}

// DefaultCompanion returns the configured default.
func (a *App) DefaultCompanion() (schema.ComponentID, bool) {
	if a.defaultID == nil {
		return schema.ComponentID{}, false
	}
	return *a.defaultID, true
}

// SeedDefault saves the configured default when no complete selection is
// saved. Without a configured default it does nothing.
func (a *App) SeedDefault(ctx context.Context) (schema.Selection, bool, error) {
	if a.defaultID == nil {
		sel, _ := a.selector.SavedSelection().Selection()
		return sel, false, nil
	}
	return a.selector.SeedDefault(ctx, *a.defaultID)
}

// ResetToDefault replaces the saved selection with the configured default.
func (a *App) ResetToDefault(ctx context.Context) (schema.Selection, error) {
	if a.defaultID == nil {
		return schema.Selection{}, schema.ErrNoDefault
	}
	return a.selector.ResetToDefault(ctx, *a.defaultID)
}

// Wait blocks until a chooser host that can be waited on has finished its
// outstanding programs.
func (a *App) Wait() {
	if waiter, ok := a.host.(interface{ Wait() }); ok {
		waiter.Wait()
	}
}

// Pick opens the chooser and blocks until the cycle has ended, including
// persistence and notification.
func (a *App) Pick(ctx context.Context) (core.Outcome, error) {
	return a.selector.Choose(ctx)
}

// Close waits for outstanding choosers.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.Wait()
		a.log.Debug("companion app closed")
	})
	return nil
}
