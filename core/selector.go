package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"pkt.systems/companion/internal/logx"
	"pkt.systems/companion/schema"
	"pkt.systems/pslog"
)

// State is the selector's position in a chooser cycle.
type State int

const (
	// StateIdle means no chooser is outstanding.
	StateIdle State = iota
	// StateAwaitingChoice means a chooser was dispatched and no result arrived yet.
	StateAwaitingChoice
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingChoice:
		return "awaiting_choice"
	default:
		return "unknown"
	}
}

// Outcome is how a chooser cycle ended.
type Outcome string

const (
	// OutcomeNone means no cycle has completed yet.
	OutcomeNone Outcome = ""
	// OutcomeResolved means a selection was persisted and the observer notified.
	OutcomeResolved Outcome = "resolved"
	// OutcomeCancelled means the host reported no usable choice.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeFailed means the selection could not be persisted.
	OutcomeFailed Outcome = "failed"
	// OutcomeIgnored means the result did not belong to the outstanding request.
	OutcomeIgnored Outcome = "ignored"
)

// Selector owns the chooser cycle, the persisted selection and the observer.
// Callers serialize OpenChooser; a second call while a cycle is outstanding
// returns schema.ErrChooserBusy.
type Selector struct {
	host     ChooserHost
	registry AppRegistry
	store    Store
	resolver *Resolver
	logger   pslog.Logger
	title    string

	mu       sync.Mutex
	observer Observer
	state    State
	cycle    *cycle
	last     Outcome
}

// cycle is one outstanding chooser request. done is closed once the result
// has been persisted and the observer notified.
type cycle struct {
	id      string
	done    chan struct{}
	claimed bool
	outcome Outcome
}

// NewSelector constructs a selector. Store is required; a nil Registry
// degrades every resolution to the namespace id.
func NewSelector(deps SelectorDeps) (*Selector, error) {
	if deps.Store == nil {
		return nil, errors.New("selector store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	resolver := deps.Resolver
	if resolver == nil {
		resolver = NewResolver(ResolverConfig{Logger: logger})
	}
	title := strings.TrimSpace(deps.Title)
	if title == "" {
		title = DefaultChooserTitle
	}
	return &Selector{
		host:     deps.Host,
		registry: deps.Registry,
		store:    deps.Store,
		resolver: resolver,
		logger:   logger,
		title:    title,
	}, nil
}

// SetObserver replaces the observer used by the next completed cycle.
func (s *Selector) SetObserver(observer Observer) {
	s.mu.Lock()
	s.observer = observer
	s.mu.Unlock()
}

// State returns the current cycle state.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastOutcome returns how the most recent cycle ended.
func (s *Selector) LastOutcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// OpenChooser dispatches a chooser request to the host and returns without
// waiting for the user. The result arrives through HandleResult.
func (s *Selector) OpenChooser(ctx context.Context) error {
	_, err := s.open(ctx)
	return err
}

// Choose opens the chooser and blocks until that cycle has ended, including
// persistence and observer notification, or ctx is done.
func (s *Selector) Choose(ctx context.Context) (Outcome, error) {
	c, err := s.open(ctx)
	if err != nil {
		return OutcomeNone, err
	}
	select {
	case <-c.done:
		return c.outcome, nil
	case <-ctx.Done():
		return OutcomeNone, ctx.Err()
	}
}

func (s *Selector) open(ctx context.Context) (*cycle, error) {
	if ctx == nil {
		return nil, errors.New("missing context")
	}
	if s.host == nil {
		return nil, schema.ErrChooserUnavailable
	}
	s.mu.Lock()
	if s.state == StateAwaitingChoice {
		s.mu.Unlock()
		return nil, schema.ErrChooserBusy
	}
	c := &cycle{id: uuid.NewString(), done: make(chan struct{})}
	req := ChooserRequest{ID: c.id, Title: s.title, Target: TargetLaunchable}
	s.state = StateAwaitingChoice
	s.cycle = c
	s.mu.Unlock()

	log := logx.WithRequest(s.logger, req.ID)
	log.Info("chooser open", "title", req.Title, "target", req.Target)
	ctx = logx.ContextWithRequestLogger(ctx, log, req.ID)
	if err := s.host.Launch(ctx, req, func(ctx context.Context, result ChooserResult) {
		s.HandleResult(ctx, result)
	}); err != nil {
		s.mu.Lock()
		if s.cycle == c && !c.claimed {
			c.claimed = true
			s.state = StateIdle
			s.cycle = nil
			close(c.done)
		}
		s.mu.Unlock()
		log.Warn("chooser open failed", "err", err)
		return nil, fmt.Errorf("open chooser: %w", err)
	}
	return c, nil
}

// HandleResult processes the host's answer to the outstanding request.
// Resolution, persistence and notification happen synchronously here.
func (s *Selector) HandleResult(ctx context.Context, result ChooserResult) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logx.WithRequest(s.logger, result.RequestID)

	s.mu.Lock()
	c := s.cycle
	if s.state != StateAwaitingChoice || c == nil || c.claimed ||
		(result.RequestID != "" && result.RequestID != c.id) {
		state := s.state
		s.mu.Unlock()
		log.Warn("chooser result ignored", "state", state, "code", result.Code)
		return OutcomeIgnored
	}
	c.claimed = true
	s.mu.Unlock()
	defer close(c.done)

	log.Debug("chooser result", "code", result.Code, "has_component", result.Component != nil)
	if result.Code != ResultOK {
		log.Info("chooser cancelled")
		return s.finish(c, OutcomeCancelled)
	}
	if result.Component == nil || !result.Component.Usable() {
		log.Info("chooser cancelled", "err", schema.ErrNoUsableResult)
		return s.finish(c, OutcomeCancelled)
	}

	id := *result.Component
	log = logx.WithComponent(log, id)
	sel := schema.Selection{
		Component:   id,
		DisplayName: s.resolver.Resolve(ctx, id, s.registry),
	}
	if err := s.persist(sel); err != nil {
		log.Error("selection persist failed", "err", err)
		return s.finish(c, OutcomeFailed)
	}
	log.Info("selection saved", "name", sel.DisplayName)

	s.mu.Lock()
	observer := s.observer
	s.mu.Unlock()
	outcome := s.finish(c, OutcomeResolved)
	if observer != nil {
		s.notify(log, observer, sel)
	}
	return outcome
}

// SeedDefault persists id as the selection when no complete selection is
// saved. It reports whether anything was written. The observer is not
// notified.
func (s *Selector) SeedDefault(ctx context.Context, id schema.ComponentID) (schema.Selection, bool, error) {
	if saved := s.SavedSelection(); saved.Complete() {
		sel, _ := saved.Selection()
		return sel, false, nil
	}
	sel, err := s.writeDefault(ctx, id)
	if err != nil {
		return schema.Selection{}, false, err
	}
	return sel, true, nil
}

// ResetToDefault replaces the saved selection with id. The observer is not
// notified.
func (s *Selector) ResetToDefault(ctx context.Context, id schema.ComponentID) (schema.Selection, error) {
	return s.writeDefault(ctx, id)
}

func (s *Selector) writeDefault(ctx context.Context, id schema.ComponentID) (schema.Selection, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !id.Usable() {
		return schema.Selection{}, fmt.Errorf("%w: %q", schema.ErrInvalidComponent, id.String())
	}
	s.mu.Lock()
	busy := s.state == StateAwaitingChoice
	s.mu.Unlock()
	if busy {
		return schema.Selection{}, schema.ErrChooserBusy
	}
	log := logx.WithComponent(s.logger, id)
	sel := schema.Selection{
		Component:   id,
		DisplayName: s.resolver.Resolve(ctx, id, s.registry),
	}
	if err := s.persist(sel); err != nil {
		log.Error("default selection persist failed", "err", err)
		return schema.Selection{}, err
	}
	log.Info("default selection saved", "name", sel.DisplayName)
	return sel, nil
}

// SavedSelection reads the persisted selection verbatim. Read errors are
// logged and reported as absent fields. Stores that can snapshot are read in
// a single pass.
func (s *Selector) SavedSelection() schema.SavedSelection {
	if snap, ok := s.store.(Snapshotter); ok {
		values, err := snap.Snapshot()
		if err != nil {
			s.logger.Warn("selection read failed", "err", err)
			return schema.SavedSelection{}
		}
		field := func(key string) schema.Field {
			if value, ok := values[key]; ok {
				return schema.SomeField(value)
			}
			return schema.Field{}
		}
		return schema.SavedSelection{
			NamespaceID: field(schema.KeyNamespaceID),
			MemberID:    field(schema.KeyMemberID),
			DisplayName: field(schema.KeyDisplayName),
		}
	}
	return schema.SavedSelection{
		NamespaceID: s.readField(schema.KeyNamespaceID),
		MemberID:    s.readField(schema.KeyMemberID),
		DisplayName: s.readField(schema.KeyDisplayName),
	}
}

// Forget removes the persisted selection as one unit.
func (s *Selector) Forget() error {
	deleter, ok := s.store.(Deleter)
	if !ok {
		return errors.New("store does not support delete")
	}
	if err := deleter.Delete(schema.SelectionKeys...); err != nil {
		return fmt.Errorf("%w: %w", schema.ErrPersistenceFailed, err)
	}
	s.logger.Info("selection forgotten")
	return nil
}

func (s *Selector) finish(c *cycle, outcome Outcome) Outcome {
	s.mu.Lock()
	s.state = StateIdle
	if s.cycle == c {
		s.cycle = nil
	}
	s.last = outcome
	c.outcome = outcome
	s.mu.Unlock()
	return outcome
}

func (s *Selector) notify(log pslog.Logger, observer Observer, sel schema.Selection) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("selection observer panicked", "panic", p)
		}
	}()
	observer.OnSelected(sel.Component.NamespaceID, sel.Component.MemberID, sel.DisplayName)
}

func (s *Selector) persist(sel schema.Selection) error {
	values := map[string]string{
		schema.KeyNamespaceID: sel.Component.NamespaceID,
		schema.KeyMemberID:    sel.Component.MemberID,
		schema.KeyDisplayName: sel.DisplayName,
	}
	if batch, ok := s.store.(BatchStore); ok {
		if err := batch.SetAll(values); err != nil {
			return fmt.Errorf("%w: %w", schema.ErrPersistenceFailed, err)
		}
		return nil
	}
	prior := s.SavedSelection()
	for _, key := range schema.SelectionKeys {
		if err := s.store.Set(key, values[key]); err != nil {
			s.restore(prior)
			return fmt.Errorf("%w: %s: %w", schema.ErrPersistenceFailed, key, err)
		}
	}
	return nil
}

// restore puts back the values read before a sequential write failed.
func (s *Selector) restore(prior schema.SavedSelection) {
	fields := map[string]schema.Field{
		schema.KeyNamespaceID: prior.NamespaceID,
		schema.KeyMemberID:    prior.MemberID,
		schema.KeyDisplayName: prior.DisplayName,
	}
	deleter, _ := s.store.(Deleter)
	for _, key := range schema.SelectionKeys {
		field := fields[key]
		var err error
		switch {
		case field.Present:
			err = s.store.Set(key, field.Value)
		case deleter != nil:
			err = deleter.Delete(key)
		}
		if err != nil {
			s.logger.Warn("selection restore failed", "key", key, "err", err)
		}
	}
}

func (s *Selector) readField(key string) schema.Field {
	value, ok, err := s.store.Get(key)
	if err != nil {
		s.logger.Warn("selection read failed", "key", key, "err", err)
		return schema.Field{}
	}
	if !ok {
		return schema.Field{}
	}
	return schema.SomeField(value)
}
