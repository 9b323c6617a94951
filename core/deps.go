package core

import (
	"context"
	"time"

	"pkt.systems/companion/schema"
	"pkt.systems/pslog"
)

// InstalledApp is one entry of the registry's installed application listing.
// Err carries a per-entry label failure; the entry itself is still enumerable.
type InstalledApp struct {
	NamespaceID string
	Label       string
	Err         error
}

// AppRegistry exposes installed application metadata.
type AppRegistry interface {
	ApplicationLabel(ctx context.Context, namespaceID string) (string, error)
	ComponentLabel(ctx context.Context, id schema.ComponentID) (string, error)
	InstalledApplications(ctx context.Context) ([]InstalledApp, error)
}

// Store is the key-value facade over persisted settings.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// BatchStore writes several keys as one unit.
type BatchStore interface {
	Store
	SetAll(values map[string]string) error
}

// Snapshotter reads every key of a store in one consistent pass.
type Snapshotter interface {
	Snapshot() (map[string]string, error)
}

// Deleter removes keys from a store.
type Deleter interface {
	Delete(keys ...string) error
}

// SelectorDeps captures dependencies for the selector.
type SelectorDeps struct {
	Host     ChooserHost
	Registry AppRegistry
	Store    Store
	Resolver *Resolver
	Logger   pslog.Logger
	// Title is the chooser prompt; DefaultChooserTitle when empty.
	Title string
}

// ResolverConfig tunes the resolver.
type ResolverConfig struct {
	// LookupTimeout bounds each tier; DefaultLookupTimeout when zero.
	LookupTimeout time.Duration
	Tiers         []LookupTier
	Logger        pslog.Logger
}
