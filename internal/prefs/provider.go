// Package prefs persists per-table user preferences (filter state and page
// size) through a pluggable key/value provider.
package prefs

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/mesh-intelligence/datatable/pkg/types"
)

// Provider is a string key/value store. Get reports false for a missing key.
type Provider interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Backend is a Provider that holds resources.
type Backend interface {
	Provider
	io.Closer
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Backends lists the names accepted by Open.
var Backends = []string{BackendMemory, BackendJSON, BackendSQLite, BackendBadger}

// Open returns the named backend rooted at dataDir.
func Open(name, dataDir string) (Backend, error) {
	switch name {
	case BackendMemory:
		return NewMemory(), nil
	case BackendJSON, "":
		return NewJSONFile(filepath.Join(dataDir, "prefs.json")), nil
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dataDir, "prefs.db"))
	case BackendBadger:
		return OpenBadger(filepath.Join(dataDir, "prefs.badger"))
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownProvider, name)
	}
}
