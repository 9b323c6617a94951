package chooser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"pkt.systems/companion/core"
	"pkt.systems/companion/internal/logx"
	"pkt.systems/companion/schema"
)

// Catalog supplies chooser candidates.
type Catalog interface {
	Launchables(ctx context.Context) ([]schema.Launchable, error)
}

// StaticCatalog is a fixed candidate list.
type StaticCatalog []schema.Launchable

// Launchables returns the list.
func (c StaticCatalog) Launchables(context.Context) ([]schema.Launchable, error) {
	return append([]schema.Launchable(nil), c...), nil
}

// Config configures a Host.
type Config struct {
	Catalog   Catalog
	Input     io.Reader
	Output    io.Writer
	AltScreen bool
}

// Host shows a terminal chooser and delivers the pick asynchronously.
type Host struct {
	catalog   Catalog
	input     io.Reader
	output    io.Writer
	altScreen bool
	run       func(ctx context.Context, model *Model) error
	wg        sync.WaitGroup
}

var _ core.ChooserHost = (*Host)(nil)

// New constructs a terminal chooser host.
func New(cfg Config) (*Host, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("chooser catalog is required")
	}
	h := &Host{
		catalog:   cfg.Catalog,
		input:     cfg.Input,
		output:    cfg.Output,
		altScreen: cfg.AltScreen,
	}
	h.run = h.runProgram
	return h, nil
}

// Launch loads the candidates and starts the chooser in the background. The
// result is delivered exactly once from the chooser goroutine. Logging uses
// the context logger.
func (h *Host) Launch(ctx context.Context, req core.ChooserRequest, deliver core.DeliverFunc) error {
	if deliver == nil {
		return errors.New("chooser deliver callback is required")
	}
	candidates, err := h.catalog.Launchables(ctx)
	if err != nil {
		return fmt.Errorf("load chooser candidates: %w", err)
	}
	title := req.Title
	if title == "" {
		title = core.DefaultChooserTitle
	}
	log := logx.WithRequestContext(ctx, req.ID)
	model := NewModel(title, candidates)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		result := core.ChooserResult{RequestID: req.ID, Code: core.ResultCanceled}
		switch {
		case len(candidates) == 0:
			log.Info("chooser has no candidates")
		default:
			log.Debug("chooser start", "candidates", len(candidates))
			if err := h.run(ctx, model); err != nil {
				log.Warn("chooser run failed", "err", err)
				break
			}
			if id, ok := model.Result(); ok {
				result.Code = core.ResultOK
				result.Component = &id
			}
		}
		deliver(ctx, result)
	}()
	return nil
}

// Wait blocks until every launched chooser has delivered its result.
func (h *Host) Wait() {
	h.wg.Wait()
}

func (h *Host) runProgram(ctx context.Context, model *Model) error {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if h.input != nil {
		opts = append(opts, tea.WithInput(h.input))
	}
	if h.output != nil {
		opts = append(opts, tea.WithOutput(h.output))
	}
	if h.altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	_, err := tea.NewProgram(model, opts...).Run()
	return err
}
