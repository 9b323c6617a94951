package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"pkt.systems/companion/schema"
)

type fakeRegistry struct {
	mu sync.Mutex

	appLabel  string
	appErr    error
	compLabel string
	compErr   error
	apps      []InstalledApp
	listErr   error
	block     bool

	appCalls  int
	compCalls int
	listCalls int
}

func (r *fakeRegistry) ApplicationLabel(ctx context.Context, namespaceID string) (string, error) {
	r.mu.Lock()
	r.appCalls++
	block := r.block
	r.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return r.appLabel, r.appErr
}

func (r *fakeRegistry) ComponentLabel(ctx context.Context, id schema.ComponentID) (string, error) {
	r.mu.Lock()
	r.compCalls++
	r.mu.Unlock()
	return r.compLabel, r.compErr
}

func (r *fakeRegistry) InstalledApplications(ctx context.Context) ([]InstalledApp, error) {
	r.mu.Lock()
	r.listCalls++
	r.mu.Unlock()
	return r.apps, r.listErr
}

func (r *fakeRegistry) calls() (int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appCalls, r.compCalls, r.listCalls
}

// failingRegistry fails every tier.
func failingRegistry() *fakeRegistry {
	return &fakeRegistry{
		appErr:  errors.New("restricted metadata"),
		compErr: errors.New("component hidden"),
		listErr: errors.New("enumeration denied"),
	}
}

type memStore struct {
	mu     sync.Mutex
	values map[string]string
	setErr map[string]error
	getErr error
	sets   int
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}, setErr: map[string]error{}}
}

func (m *memStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if err := m.setErr[key]; err != nil {
		return err
	}
	m.values[key] = value
	return nil
}

func (m *memStore) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

type batchStore struct {
	*memStore
	batchErr error
	batches  int
}

func (b *batchStore) SetAll(values map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batches++
	if b.batchErr != nil {
		return b.batchErr
	}
	for k, v := range values {
		b.values[k] = v
	}
	return nil
}

// manualHost records launches and lets the test deliver results later.
type manualHost struct {
	mu        sync.Mutex
	requests  []ChooserRequest
	delivers  []DeliverFunc
	launchErr error
}

func (h *manualHost) Launch(ctx context.Context, req ChooserRequest, deliver DeliverFunc) error {
	if h.launchErr != nil {
		return h.launchErr
	}
	h.mu.Lock()
	h.requests = append(h.requests, req)
	h.delivers = append(h.delivers, deliver)
	h.mu.Unlock()
	return nil
}

func (h *manualHost) last() (ChooserRequest, DeliverFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.requests)
	return h.requests[n-1], h.delivers[n-1]
}

type selectedCall struct {
	ns, member, name string
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []selectedCall
}

func (o *recordingObserver) OnSelected(ns, member, name string) {
	o.mu.Lock()
	o.calls = append(o.calls, selectedCall{ns, member, name})
	o.mu.Unlock()
}

func (o *recordingObserver) snapshot() []selectedCall {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]selectedCall(nil), o.calls...)
}

// delayedHost delivers from its own goroutine after a delay and exposes no
// way to wait for it.
type delayedHost struct {
	delay time.Duration
	pick  *schema.ComponentID
}

func (h *delayedHost) Launch(ctx context.Context, req ChooserRequest, deliver DeliverFunc) error {
	go func() {
		time.Sleep(h.delay)
		res := ChooserResult{RequestID: req.ID, Code: ResultCanceled}
		if h.pick != nil {
			res.Code = ResultOK
			res.Component = h.pick
		}
		deliver(ctx, res)
	}()
	return nil
}

type snapshotStore struct {
	*memStore
	snapshots int
	gets      int
}

func (s *snapshotStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	return s.memStore.Get(key)
}

func (s *snapshotStore) Snapshot() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots++
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}
