package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/cwbudde/curvefit/internal/store"
)

const (
	storeFS     = "fs"
	storeSQLite = "sqlite"

	sqliteFile = "checkpoints.db"
)

// storeFlags select the checkpoint backend
type storeFlags struct {
	dataDir string
	kind    string
}

func (f *storeFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.dataDir, "data-dir", "./data", "Base directory for checkpoint storage")
	flags.StringVar(&f.kind, "store", storeFS, "Checkpoint store: fs (JSON files) or sqlite")
}

// open creates the selected store. The returned close function must be called when done.
func (f *storeFlags) open() (store.Store, func() error, error) {
	switch f.kind {
	case storeFS:
		s, err := store.NewFSStore(f.dataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create checkpoint store: %w", err)
		}
		return s, func() error { return nil }, nil
	case storeSQLite:
		if err := os.MkdirAll(f.dataDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		s, err := store.NewSQLiteStore(filepath.Join(f.dataDir, sqliteFile))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create checkpoint store: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q (must be %s or %s)", f.kind, storeFS, storeSQLite)
	}
}

// traceDir returns the directory job traces live in; traces are kept next to
// checkpoints for both backends
func (f *storeFlags) traceDir() string {
	return f.dataDir
}
