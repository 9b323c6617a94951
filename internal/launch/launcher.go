// Package launch starts the saved companion application.
package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"pkt.systems/companion/internal/logx"
	"pkt.systems/companion/schema"
	"pkt.systems/pslog"
)

// CommandSource turns a component id into an argv.
type CommandSource interface {
	Command(ctx context.Context, id schema.ComponentID) ([]string, error)
}

// StartFunc starts argv without waiting for it to exit.
type StartFunc func(ctx context.Context, argv []string) (pid int, err error)

// Config configures a Launcher.
type Config struct {
	Commands CommandSource
	// Fallback is started when nothing usable is saved or the saved component
	// fails to start. Accepts "namespace" or "namespace/member".
	Fallback string
	Start    StartFunc
	Logger   pslog.Logger
}

// Launcher starts companions.
type Launcher struct {
	commands CommandSource
	fallback *schema.ComponentID
	start    StartFunc
	log      pslog.Logger
}

// Result describes what was started.
type Result struct {
	Component schema.ComponentID
	PID       int
	Fallback  bool
}

// New constructs a Launcher.
func New(cfg Config) (*Launcher, error) {
	if cfg.Commands == nil {
		return nil, errors.New("launch command source is required")
	}
	l := &Launcher{
		commands: cfg.Commands,
		start:    cfg.Start,
		log:      cfg.Logger,
	}
	if l.start == nil {
		l.start = startDetached
	}
	if l.log == nil {
		l.log = pslog.Ctx(context.Background())
	}
	if raw := strings.TrimSpace(cfg.Fallback); raw != "" {
		id, err := schema.ParseComponentID(raw)
		if err != nil {
			return nil, fmt.Errorf("launch fallback: %w", err)
		}
		l.fallback = &id
	}
	return l, nil
}

// Fallback returns the configured fallback component.
func (l *Launcher) Fallback() (schema.ComponentID, bool) {
	if l.fallback == nil {
		return schema.ComponentID{}, false
	}
	return *l.fallback, true
}

// Launch starts the saved component, or the fallback when the saved
// selection is incomplete or fails to start.
func (l *Launcher) Launch(ctx context.Context, saved schema.SavedSelection) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var savedErr error
	if sel, ok := saved.Selection(); ok && sel.Component.Usable() {
		pid, err := l.startComponent(ctx, sel.Component)
		if err == nil {
			return Result{Component: sel.Component, PID: pid}, nil
		}
		savedErr = err
		logx.WithComponent(l.log, sel.Component).Warn("companion launch failed", "err", err)
	} else {
		savedErr = schema.ErrNoSelection
		l.log.Debug("companion launch without saved selection")
	}

	if l.fallback == nil {
		return Result{}, savedErr
	}
	pid, err := l.startComponent(ctx, *l.fallback)
	if err != nil {
		logx.WithComponent(l.log, *l.fallback).Error("companion fallback launch failed", "err", err)
		return Result{}, errors.Join(savedErr, fmt.Errorf("fallback %s: %w", l.fallback, err))
	}
	return Result{Component: *l.fallback, PID: pid, Fallback: true}, nil
}

func (l *Launcher) startComponent(ctx context.Context, id schema.ComponentID) (int, error) {
	argv, err := l.commands.Command(ctx, id)
	if err != nil {
		return 0, err
	}
	if len(argv) == 0 {
		return 0, fmt.Errorf("empty command for %s", id)
	}
	pid, err := l.start(ctx, argv)
	if err != nil {
		return 0, fmt.Errorf("start %s: %w", argv[0], err)
	}
	logx.WithComponent(l.log, id).Info("companion started", "pid", pid, "argv", argv)
	return pid, nil
}

// startDetached starts argv outside the caller's context so the companion
// outlives the launching process.
func startDetached(_ context.Context, argv []string) (int, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = os.Environ()
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	go func() {
		_ = cmd.Wait()
	}()
	return pid, nil
}
