package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"pkt.systems/pslog"
)

// Store is a namespaced key-value store persisted as one JSON object per
// namespace. Every write replaces the file atomically.
type Store struct {
	dir       string
	namespace string
	log       pslog.Logger
	mu        sync.Mutex
}

// NewStore constructs a persistent store for namespace at the given directory.
func NewStore(dir, namespace string) (*Store, error) {
	return NewStoreWithLogger(dir, namespace, nil)
}

// NewStoreWithLogger constructs a persistent store with logging.
func NewStoreWithLogger(dir, namespace string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	name := sanitize(strings.TrimSpace(namespace))
	if name == "" {
		return nil, errors.New("store namespace is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir, "namespace", name)
	}
	return &Store{dir: dir, namespace: name, log: logger}, nil
}

// Path returns the file backing the namespace.
func (s *Store) Path() string {
	return filepath.Join(s.dir, s.namespace+".json")
}

// Get returns the value for key and whether it is present.
func (s *Store) Get(key string) (string, bool, error) {
	values, err := s.Snapshot()
	if err != nil {
		return "", false, err
	}
	value, ok := values[key]
	return value, ok, nil
}

// Snapshot returns every key in the namespace.
func (s *Store) Snapshot() (map[string]string, error) {
	var values map[string]string
	err := s.withLock(func() error {
		var err error
		values, err = s.load()
		return err
	})
	return values, err
}

// Set writes a single key.
func (s *Store) Set(key, value string) error {
	return s.SetAll(map[string]string{key: value})
}

// SetAll writes every key in values in one atomic replace.
func (s *Store) SetAll(values map[string]string) error {
	return s.update(func(current map[string]string) {
		for k, v := range values {
			current[k] = v
		}
	}, "set", keysOf(values))
}

// Delete removes keys in one atomic replace. Missing keys are ignored.
func (s *Store) Delete(keys ...string) error {
	return s.update(func(current map[string]string) {
		for _, k := range keys {
			delete(current, k)
		}
	}, "delete", keys)
}

func (s *Store) update(mutate func(map[string]string), op string, keys []string) error {
	return s.withLock(func() error {
		current, err := s.load()
		if err != nil {
			return err
		}
		mutate(current)
		if err := s.save(current); err != nil {
			if s.log != nil {
				s.log.Warn("store "+op+" failed", "keys", keys, "err", err)
			}
			return err
		}
		if s.log != nil {
			s.log.Trace("store "+op+" ok", "keys", keys)
		}
		return nil
	})
}

func (s *Store) load() (map[string]string, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("store load miss")
			}
			return map[string]string{}, nil
		}
		if s.log != nil {
			s.log.Warn("store load failed", "err", err)
		}
		return nil, err
	}
	values := map[string]string{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		if s.log != nil {
			s.log.Warn("store load failed", "err", err)
		}
		return nil, err
	}
	return values, nil
}

func (s *Store) save(values map[string]string) error {
	path := s.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), s.namespace+"-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Store) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := lockFile(filepath.Join(s.dir, s.namespace+".lock"))
	if err != nil {
		if s.log != nil {
			s.log.Warn("store lock failed", "err", err)
		}
		return err
	}
	defer unlock()
	return fn()
}

func keysOf(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
