package pebblestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// ErrNotFound is returned by Get for missing keys.
var ErrNotFound = pebble.ErrNotFound

// FsyncMode selects when committed rows reach stable storage.
type FsyncMode int

const (
	// FsyncModeUnspecified behaves like FsyncModeInterval with a 5ms window.
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways syncs the WAL before each commit returns.
	FsyncModeAlways
	// FsyncModeInterval lets Pebble batch WAL syncs within FsyncInterval.
	FsyncModeInterval
	// FsyncModeNever leaves syncing to Pebble and the OS.
	FsyncModeNever
)

// ParseFsyncMode accepts always|interval|never; empty selects the default.
func ParseFsyncMode(s string) (FsyncMode, error) {
	switch s {
	case "":
		return FsyncModeUnspecified, nil
	case "always":
		return FsyncModeAlways, nil
	case "interval":
		return FsyncModeInterval, nil
	case "never":
		return FsyncModeNever, nil
	}
	return FsyncModeUnspecified, fmt.Errorf("pebble: invalid fsync mode %q; use always|interval|never", s)
}

// Options configures Open.
type Options struct {
	DataDir string
	Fsync   FsyncMode
	// FsyncInterval is the WAL group-commit window for FsyncModeInterval.
	// Zero selects 5ms.
	FsyncInterval time.Duration
	// PebbleOptions is passed to pebble.Open after the fsync settings are
	// applied. Nil selects Pebble's defaults.
	PebbleOptions *pebble.Options
	// Observer receives commit and read timings. Optional.
	Observer Observer
}

// Observer is told about every batch commit and point read.
type Observer interface {
	ObserveCommit(elapsed time.Duration, ops int, bytes int, err error)
	ObserveGet(elapsed time.Duration, bytes int)
}

type nopObserver struct{}

func (nopObserver) ObserveCommit(time.Duration, int, int, error) {}
func (nopObserver) ObserveGet(time.Duration, int)                {}

// DB is an open Pebble database.
type DB struct {
	inner     *pebble.DB
	writeSync bool
	observer  Observer
}

// Open opens or creates the database in opts.DataDir.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebble: Options.DataDir is required")
	}
	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	switch opts.Fsync {
	case FsyncModeAlways, FsyncModeNever:
	case FsyncModeInterval:
		window := opts.FsyncInterval
		if window <= 0 {
			window = 5 * time.Millisecond
		}
		po.WALMinSyncInterval = func() time.Duration { return window }
	default:
		po.WALMinSyncInterval = func() time.Duration { return 5 * time.Millisecond }
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, fmt.Errorf("pebble: open %s: %w", opts.DataDir, err)
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &DB{inner: inner, writeSync: opts.Fsync == FsyncModeAlways, observer: obs}, nil
}

// Close closes the database. Closing a nil DB is a no-op.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	return db.inner.Close()
}

// NewBatch returns an empty write batch.
func (db *DB) NewBatch() *pebble.Batch {
	return db.inner.NewBatch()
}

// CommitBatch commits b, syncing the WAL when the mode is FsyncModeAlways.
// A done ctx fails the commit before anything is written.
func (db *DB) CommitBatch(ctx context.Context, b *pebble.Batch) error {
	if b == nil {
		return errors.New("pebble: nil batch")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := pebble.NoSync
	if db.writeSync {
		opts = pebble.Sync
	}
	start := time.Now()
	err := b.Commit(opts)
	db.observer.ObserveCommit(time.Since(start), int(b.Count()), b.Len(), err)
	return err
}

// Set writes one key in its own batch.
func (db *DB) Set(key, value []byte) error {
	b := db.inner.NewBatch()
	defer b.Close()
	if err := b.Set(key, value, nil); err != nil {
		return err
	}
	return db.CommitBatch(context.Background(), b)
}

// Get copies the value for the given key. Missing keys return ErrNotFound.
func (db *DB) Get(key []byte) ([]byte, error) {
	start := time.Now()
	val, closer, err := db.inner.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	buf := append([]byte(nil), val...)
	db.observer.ObserveGet(time.Since(start), len(buf))
	return buf, nil
}

// NewIter returns a Pebble iterator; the caller closes it.
func (db *DB) NewIter(opts *pebble.IterOptions) (*pebble.Iterator, error) {
	return db.inner.NewIter(opts)
}
