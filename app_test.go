package companion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pkt.systems/companion/core"
	"pkt.systems/companion/internal/eventbus"
	"pkt.systems/companion/schema"
)

type scriptedHost struct {
	pick *schema.ComponentID
	wg   sync.WaitGroup
}

func (h *scriptedHost) Launch(ctx context.Context, req core.ChooserRequest, deliver core.DeliverFunc) error {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		res := core.ChooserResult{RequestID: req.ID, Code: core.ResultCanceled}
		if h.pick != nil {
			res.Code = core.ResultOK
			res.Component = h.pick
		}
		deliver(ctx, res)
	}()
	return nil
}

func (h *scriptedHost) Wait() { h.wg.Wait() }

// detachedHost delivers from its own goroutine and cannot be waited on.
type detachedHost struct {
	pick  schema.ComponentID
	delay time.Duration
}

func (h detachedHost) Launch(ctx context.Context, req core.ChooserRequest, deliver core.DeliverFunc) error {
	go func() {
		time.Sleep(h.delay)
		pick := h.pick
		deliver(ctx, core.ChooserResult{RequestID: req.ID, Code: core.ResultOK, Component: &pick})
	}()
	return nil
}

func writeDesktop(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write desktop file: %v", err)
	}
}

func newTestApp(t *testing.T, host core.ChooserHost, observers ...core.Observer) (*App, string) {
	t.Helper()
	return newTestAppWith(t, host, nil, observers...)
}

func newTestAppWith(t *testing.T, host core.ChooserHost, configure func(*Config), observers ...core.Observer) (*App, string) {
	t.Helper()
	apps := filepath.Join(t.TempDir(), "applications")
	writeDesktop(t, apps, "org.gnome.Music.desktop", `[Desktop Entry]
Type=Application
Name=Music
Exec=gnome-music %U
Actions=shuffle;

[Desktop Action shuffle]
Name=Shuffle All
Exec=gnome-music --shuffle
`)
	state := t.TempDir()
	cfg := Config{
		StateDir:       state,
		DataDirs:       []string{apps},
		IncludeActions: true,
		LookupTimeout:  time.Second,
		LaunchFallback: "org.gnome.Music",
	}
	if configure != nil {
		configure(&cfg)
	}
	app, err := New(cfg, Deps{
		Host:      host,
		Observers: observers,
		Start: func(context.Context, []string) (int, error) {
			return 42, nil
		},
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app, state
}

func TestPickPersistsAndPublishes(t *testing.T) {
	pick := schema.ComponentID{NamespaceID: "org.gnome.Music", MemberID: "shuffle"}
	var got []string
	app, state := newTestApp(t, &scriptedHost{pick: &pick}, core.ObserverFunc(func(ns, member, name string) {
		got = []string{ns, member, name}
	}))
	events, cancel := app.Bus().Subscribe()
	defer cancel()

	outcome, err := app.Pick(context.Background())
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if outcome != core.OutcomeResolved {
		t.Fatalf("expected resolved, got %q", outcome)
	}
	if len(got) != 3 || got[2] != "Music" {
		t.Fatalf("unexpected observer payload %v", got)
	}
	select {
	case ev := <-events:
		if ev.Type != eventbus.EventSelected || ev.Selection.Component != pick {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected bus event")
	}

	saved := app.Selector().SavedSelection()
	sel, ok := saved.Selection()
	if !ok || sel.Component != pick || sel.DisplayName != "Music" {
		t.Fatalf("unexpected saved selection %+v", saved)
	}
	if _, err := os.Stat(filepath.Join(state, schema.DefaultNamespace+".json")); err != nil {
		t.Fatalf("expected state file: %v", err)
	}
}

func TestPickCancelledKeepsState(t *testing.T) {
	app, _ := newTestApp(t, &scriptedHost{})
	outcome, err := app.Pick(context.Background())
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if outcome != core.OutcomeCancelled {
		t.Fatalf("expected cancelled, got %q", outcome)
	}
	if !app.Selector().SavedSelection().Empty() {
		t.Fatalf("expected nothing persisted")
	}
}

func TestLaunchUsesFallback(t *testing.T) {
	app, _ := newTestApp(t, &scriptedHost{})
	res, err := app.Launcher().Launch(context.Background(), app.Selector().SavedSelection())
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if !res.Fallback || res.PID != 42 || res.Component.NamespaceID != "org.gnome.Music" {
		t.Fatalf("unexpected launch result %+v", res)
	}
}

func TestRegistryListsActions(t *testing.T) {
	app, _ := newTestApp(t, &scriptedHost{})
	candidates, err := app.Registry().Launchables(context.Background())
	if err != nil {
		t.Fatalf("launchables: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected entry and action, got %+v", candidates)
	}
}

func TestNewRequiresStateDir(t *testing.T) {
	if _, err := New(Config{}, Deps{Host: &scriptedHost{}}); err == nil {
		t.Fatalf("expected state dir error")
	}
}

func TestPickWaitsForHostWithoutWait(t *testing.T) {
	pick := schema.ComponentID{NamespaceID: "org.gnome.Music", MemberID: "shuffle"}
	var (
		mu  sync.Mutex
		got string
	)
	app, _ := newTestApp(t, detachedHost{pick: pick, delay: 20 * time.Millisecond}, core.ObserverFunc(func(_, _, name string) {
		mu.Lock()
		got = name
		mu.Unlock()
	}))

	outcome, err := app.Pick(context.Background())
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if outcome != core.OutcomeResolved {
		t.Fatalf("expected resolved, got %q", outcome)
	}
	mu.Lock()
	name := got
	mu.Unlock()
	if name != "Music" {
		t.Fatalf("expected observer notified before Pick returned, got %q", name)
	}
	sel, ok := app.Selector().SavedSelection().Selection()
	if !ok || sel.Component != pick {
		t.Fatalf("expected selection persisted before Pick returned, got %+v", sel)
	}
}

func TestSeedDefault(t *testing.T) {
	app, _ := newTestAppWith(t, &scriptedHost{}, func(cfg *Config) {
		cfg.DefaultCompanion = "org.gnome.Music/shuffle"
	})
	sel, seeded, err := app.SeedDefault(context.Background())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !seeded || sel.DisplayName != "Music" {
		t.Fatalf("expected default seeded, got %+v seeded=%v", sel, seeded)
	}
	if _, seeded, err = app.SeedDefault(context.Background()); err != nil || seeded {
		t.Fatalf("expected second seed to be a no-op, seeded=%v err=%v", seeded, err)
	}
}

func TestSeedDefaultWithoutDefault(t *testing.T) {
	app, _ := newTestApp(t, &scriptedHost{})
	if _, seeded, err := app.SeedDefault(context.Background()); err != nil || seeded {
		t.Fatalf("expected no-op, seeded=%v err=%v", seeded, err)
	}
	if !app.Selector().SavedSelection().Empty() {
		t.Fatalf("expected nothing persisted")
	}
}

func TestResetToDefault(t *testing.T) {
	pick := schema.ComponentID{NamespaceID: "org.gnome.Music", MemberID: "shuffle"}
	app, _ := newTestAppWith(t, &scriptedHost{pick: &pick}, func(cfg *Config) {
		cfg.DefaultCompanion = "org.gnome.Music"
	})
	if _, err := app.Pick(context.Background()); err != nil {
		t.Fatalf("pick: %v", err)
	}
	sel, err := app.ResetToDefault(context.Background())
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	want := schema.ComponentID{NamespaceID: "org.gnome.Music", MemberID: schema.DefaultMemberID}
	if sel.Component != want || sel.DisplayName != "Music" {
		t.Fatalf("unexpected reset selection %+v", sel)
	}
	saved, ok := app.Selector().SavedSelection().Selection()
	if !ok || saved != sel {
		t.Fatalf("expected reset persisted, got %+v", saved)
	}
}

func TestResetWithoutDefault(t *testing.T) {
	app, _ := newTestApp(t, &scriptedHost{})
	if _, err := app.ResetToDefault(context.Background()); !errors.Is(err, schema.ErrNoDefault) {
		t.Fatalf("expected ErrNoDefault, got %v", err)
	}
}

func TestNewRejectsInvalidDefault(t *testing.T) {
	_, err := New(Config{StateDir: t.TempDir(), DefaultCompanion: "/"}, Deps{Host: &scriptedHost{}})
	if err == nil {
		t.Fatalf("expected invalid default error")
	}
}
