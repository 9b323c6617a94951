package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pkt.systems/companion/internal/logx"
	"pkt.systems/companion/schema"
	"pkt.systems/pslog"
)

// DefaultLookupTimeout bounds a single registry tier.
const DefaultLookupTimeout = 2 * time.Second

// unknownDisplayName is only used when the component id carries no text at all.
const unknownDisplayName = "unknown"

// LookupResult is the outcome of one tier.
type LookupResult struct {
	Label string
	Err   error
}

func (r LookupResult) ok() bool {
	return r.Err == nil && strings.TrimSpace(r.Label) != ""
}

// LookupTier is one strategy in the resolver's fallback chain.
type LookupTier interface {
	Name() TierName
	Lookup(ctx context.Context, reg AppRegistry, id schema.ComponentID) LookupResult
}

// DefaultTiers returns application, component and scan tiers in that order.
func DefaultTiers() []LookupTier {
	return []LookupTier{ApplicationTier(), ComponentTier(), ScanTier()}
}

type applicationTier struct{}

// ApplicationTier looks up the label of the application owning the namespace.
func ApplicationTier() LookupTier { return applicationTier{} }

func (applicationTier) Name() TierName { return TierApplication }

func (applicationTier) Lookup(ctx context.Context, reg AppRegistry, id schema.ComponentID) LookupResult {
	label, err := reg.ApplicationLabel(ctx, id.NamespaceID)
	if err != nil {
		return LookupResult{Err: err}
	}
	return LookupResult{Label: label}
}

type componentTier struct{}

// ComponentTier looks up the label of the specific component.
func ComponentTier() LookupTier { return componentTier{} }

func (componentTier) Name() TierName { return TierComponent }

func (componentTier) Lookup(ctx context.Context, reg AppRegistry, id schema.ComponentID) LookupResult {
	label, err := reg.ComponentLabel(ctx, id)
	if err != nil {
		return LookupResult{Err: err}
	}
	return LookupResult{Label: label}
}

type scanTier struct{}

// ScanTier walks every installed application looking for the namespace.
// Entries whose label cannot be read are skipped.
func ScanTier() LookupTier { return scanTier{} }

func (scanTier) Name() TierName { return TierScan }

func (scanTier) Lookup(ctx context.Context, reg AppRegistry, id schema.ComponentID) LookupResult {
	apps, err := reg.InstalledApplications(ctx)
	if err != nil {
		return LookupResult{Err: err}
	}
	log := pslog.Ctx(ctx)
	for _, app := range apps {
		if app.NamespaceID != id.NamespaceID {
			continue
		}
		if app.Err != nil {
			log.Debug("resolve scan entry skipped", "namespace", app.NamespaceID, "err", app.Err)
			continue
		}
		if strings.TrimSpace(app.Label) == "" {
			log.Debug("resolve scan entry skipped", "namespace", app.NamespaceID, "err", schema.ErrNoLabel)
			continue
		}
		return LookupResult{Label: app.Label}
	}
	return LookupResult{Err: schema.ErrNotFound}
}

// Resolver produces a display name for a component id. It holds no state
// between calls.
type Resolver struct {
	tiers   []LookupTier
	timeout time.Duration
	logger  pslog.Logger
}

// NewResolver constructs a resolver; zero config yields the default chain.
func NewResolver(cfg ResolverConfig) *Resolver {
	tiers := cfg.Tiers
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	timeout := cfg.LookupTimeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Resolver{tiers: tiers, timeout: timeout, logger: logger}
}

// Resolve returns the best available display name for id. It never fails and
// never returns an empty string; when every tier fails the namespace id is used.
func (r *Resolver) Resolve(ctx context.Context, id schema.ComponentID, reg AppRegistry) string {
	if r == nil {
		r = NewResolver(ResolverConfig{})
	}
	if ctx == nil {
		ctx = context.Background()
	}
	log := logx.WithComponent(r.logger, id)
	fallback := FallbackDisplayName(id)
	if reg == nil {
		log.Warn("resolve registry unavailable", "fallback", fallback, "err", schema.ErrRegistryUnavailable)
		return fallback
	}
	ctx = pslog.ContextWithLogger(ctx, log)
	for _, tier := range r.tiers {
		res := r.runTier(ctx, tier, reg, id)
		if res.ok() {
			log.Debug("resolve ok", "tier", tier.Name(), "label", res.Label)
			return res.Label
		}
		err := res.Err
		if err == nil {
			err = schema.ErrNoLabel
		}
		log.Debug("resolve tier failed", "err", newLookupError(tier.Name(), err))
	}
	log.Info("resolve fallback", "label", fallback)
	return fallback
}

// FallbackDisplayName is the terminal fallback for id.
func FallbackDisplayName(id schema.ComponentID) string {
	if ns := strings.TrimSpace(id.NamespaceID); ns != "" {
		return id.NamespaceID
	}
	if member := strings.TrimSpace(id.MemberID); member != "" {
		return id.MemberID
	}
	return unknownDisplayName
}

func (r *Resolver) runTier(ctx context.Context, tier LookupTier, reg AppRegistry, id schema.ComponentID) LookupResult {
	tierCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan LookupResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- LookupResult{Err: fmt.Errorf("%w: panic: %v", schema.ErrLookupFailed, p)}
			}
		}()
		done <- tier.Lookup(tierCtx, reg, id)
	}()

	select {
	case res := <-done:
		return res
	case <-tierCtx.Done():
		if err := ctx.Err(); err != nil {
			return LookupResult{Err: err}
		}
		return LookupResult{Err: fmt.Errorf("%w after %s", schema.ErrLookupTimeout, r.timeout)}
	}
}
