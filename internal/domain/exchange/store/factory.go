// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Backend names accepted by OpenStore.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// OpenStore creates an instrumented Store for backend. For sqlite, path is
// the database file; for badger it is a directory.
func OpenStore(backend, path string) (Store, error) {
	if backend == "" {
		backend = BackendSQLite
	}

	var (
		inner Store
		err   error
	)
	switch backend {
	case BackendMemory:
		inner = NewMemoryStore()
	case BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("exchange store: create data dir: %w", err)
		}
		inner, err = NewSqliteStore(path)
	case BackendBadger:
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("exchange store: create data dir: %w", err)
		}
		inner, err = OpenBadgerStore(path)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
	if err != nil {
		return nil, err
	}
	return NewInstrumentedStore(inner, backend), nil
}
