package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/mesh-intelligence/datatable/pkg/types"
)

// lockTimeout bounds how long a JSONFile operation waits for the file lock.
const lockTimeout = 3 * time.Second

// JSONFile stores all keys in one JSON object on disk. A sibling ".lock"
// file serializes access across processes; writes go to a temp file that
// is renamed into place.
type JSONFile struct {
	path   string
	lock   *flock.Flock
	mu     sync.Mutex
	closed bool
}

// NewJSONFile returns a provider backed by path. The file is created on the
// first Set.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the backing file.
func (f *JSONFile) Path() string {
	return f.path
}

func (f *JSONFile) Get(key string) (string, bool, error) {
	var (
		v  string
		ok bool
	)
	err := f.locked(func() error {
		values, err := f.read()
		if err != nil {
			return err
		}
		v, ok = values[key]
		return nil
	})
	return v, ok, err
}

func (f *JSONFile) Set(key, value string) error {
	return f.locked(func() error {
		values, err := f.read()
		if err != nil {
			return err
		}
		values[key] = value
		return f.write(values)
	})
}

func (f *JSONFile) Delete(key string) error {
	return f.locked(func() error {
		values, err := f.read()
		if err != nil {
			return err
		}
		if _, ok := values[key]; !ok {
			return nil
		}
		delete(values, key)
		return f.write(values)
	})
}

// Close releases the provider and removes the lock file.
func (f *JSONFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	_ = os.Remove(f.path + ".lock")
	return nil
}

// locked runs fn holding both the in-process mutex and the file lock.
func (f *JSONFile) locked(fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return types.ErrProviderClosed
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	ok, err := f.lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock %s: %w", f.path, err)
	}
	if !ok {
		return fmt.Errorf("lock %s: not acquired", f.path)
	}
	defer func() { _ = f.lock.Unlock() }()
	return fn()
}

// read loads the file. A missing or empty file reads as no keys.
func (f *JSONFile) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prefs: %w", err)
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse prefs %s: %w", f.path, err)
	}
	return values, nil
}

func (f *JSONFile) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp prefs: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp prefs: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp prefs: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename prefs: %w", err)
	}
	return nil
}
