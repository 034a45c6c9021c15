package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/aliyun/tablestore-timeline-sub000/internal/codec"
	cfgpkg "github.com/aliyun/tablestore-timeline-sub000/internal/config"
	pebblestore "github.com/aliyun/tablestore-timeline-sub000/internal/storage/pebble"
	"github.com/aliyun/tablestore-timeline-sub000/internal/tablestore"
	"github.com/aliyun/tablestore-timeline-sub000/internal/timeline"
	logpkg "github.com/aliyun/tablestore-timeline-sub000/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	// DataDir overrides Config.DataDir; both empty selects config.DefaultDataDir().
	DataDir string
	Config  cfgpkg.Config
	// Logger defaults to one built from Config.Log.
	Logger logpkg.Logger
}

// Runtime wires storage, codec and the timeline store for one data directory.
type Runtime struct {
	db     *pebblestore.DB
	table  *tablestore.Table
	writer *tablestore.BatchWriter
	store  *timeline.Store
	config cfgpkg.Config
	logger logpkg.Logger
}

// Open validates the configuration, opens the database and starts the batch
// writer.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		var err error
		if logger, err = logpkg.ApplyConfig(&cfg.Log); err != nil {
			return nil, err
		}
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	if dataDir == "" {
		dataDir = cfgpkg.DefaultDataDir()
	}
	storeOpts, err := cfg.StoreOptions(dataDir)
	if err != nil {
		return nil, err
	}
	storeOpts.PebbleOptions = &pebble.Options{Logger: pebbleLogger{l: logger.WithComponent("pebble")}}
	storeOpts.Observer = commitLogger{logger: logger.WithComponent("pebble"), slow: cfg.SlowCommit()}
	db, err := pebblestore.Open(storeOpts)
	if err != nil {
		return nil, err
	}

	c, err := codec.New(cfg.CodecConfig())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	table, err := tablestore.OpenTable(db, cfg.Table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	writer := tablestore.NewBatchWriter(table, tablestore.BatchWriterOptions{
		BatchSize:     cfg.Write.BatchSize,
		FlushInterval: cfg.FlushInterval(),
		Logger:        logger,
	})
	store, err := timeline.NewStore(table, timeline.Options{Codec: c, Writer: writer, Logger: logger})
	if err != nil {
		_ = writer.Close()
		_ = db.Close()
		return nil, err
	}
	logger.Debug("runtime opened", logpkg.Str("data_dir", dataDir), logpkg.Str("table", cfg.Table))
	return &Runtime{db: db, table: table, writer: writer, store: store, config: cfg, logger: logger}, nil
}

// Close drains the batch writer, then closes the database.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	werr := r.writer.Close()
	return errors.Join(werr, r.db.Close())
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Store returns the timeline store.
func (r *Runtime) Store() *timeline.Store { return r.store }

// Flush waits for buffered async appends to commit.
func (r *Runtime) Flush(ctx context.Context) error { return r.writer.Flush(ctx) }

// Table exposes the underlying table (internal use only).
func (r *Runtime) Table() *tablestore.Table { return r.table }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the process logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }

// pebbleLogger formats Pebble's printf-style messages before handing them to
// the structured logger.
type pebbleLogger struct{ l logpkg.Logger }

func (p pebbleLogger) Infof(format string, args ...interface{}) {
	p.l.Info(fmt.Sprintf(format, args...))
}

func (p pebbleLogger) Errorf(format string, args ...interface{}) {
	p.l.Error(fmt.Sprintf(format, args...))
}

func (p pebbleLogger) Fatalf(format string, args ...interface{}) {
	p.l.Fatal(fmt.Sprintf(format, args...))
}
