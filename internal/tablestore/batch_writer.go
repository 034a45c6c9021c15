package tablestore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aliyun/tablestore-timeline-sub000/internal/column"
	logpkg "github.com/aliyun/tablestore-timeline-sub000/pkg/log"
)

// ErrWriterClosed is reported to callbacks of rows put after Close.
var ErrWriterClosed = errors.New("tablestore: batch writer closed")

// RowCallback receives the outcome of a buffered put. Exactly one method is
// called, once, on the writer's flush goroutine (or on the caller's goroutine
// when the writer is already closed). Implementations must not block.
type RowCallback interface {
	OnSuccess(key RowKey)
	OnFailure(key RowKey, err error)
}

// RowCallbackFunc adapts a function to RowCallback; err is nil on success.
type RowCallbackFunc func(key RowKey, err error)

func (f RowCallbackFunc) OnSuccess(key RowKey)            { f(key, nil) }
func (f RowCallbackFunc) OnFailure(key RowKey, err error) { f(key, err) }

// BatchWriterOptions tunes buffering.
type BatchWriterOptions struct {
	// BatchSize flushes once this many rows are buffered. Default 100.
	BatchSize int
	// FlushInterval flushes buffered rows at least this often. Default 10ms.
	FlushInterval time.Duration
	Logger        logpkg.Logger
}

type pendingRow struct {
	row Row
	cb  RowCallback
}

// BatchWriter buffers row puts and commits them in batches.
type BatchWriter struct {
	table  *Table
	opts   BatchWriterOptions
	logger logpkg.Logger

	mu      sync.Mutex
	pending []pendingRow
	closed  bool

	kick    chan struct{}
	flushRq chan chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

// NewBatchWriter starts the flush goroutine. Call Close to drain and stop it.
func NewBatchWriter(table *Table, opts BatchWriterOptions) *BatchWriter {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 10 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	w := &BatchWriter{
		table:   table,
		opts:    opts,
		logger:  logger.With(logpkg.Component("batch_writer"), logpkg.Str("table", table.Name())),
		kick:    make(chan struct{}, 1),
		flushRq: make(chan chan struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Put buffers a row. cb is invoked once the row is committed or has failed.
func (w *BatchWriter) Put(key RowKey, cols column.Set, cb RowCallback) {
	if cb == nil {
		cb = RowCallbackFunc(func(RowKey, error) {})
	}
	if err := validateRowKey(key); err != nil {
		cb.OnFailure(key, err)
		return
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		cb.OnFailure(key, ErrWriterClosed)
		return
	}
	w.pending = append(w.pending, pendingRow{row: Row{Key: key, Columns: cols}, cb: cb})
	full := len(w.pending) >= w.opts.BatchSize
	w.mu.Unlock()

	if full {
		select {
		case w.kick <- struct{}{}:
		default:
		}
	}
}

// Flush blocks until every row buffered before the call has been committed
// and its callback invoked, or ctx is done.
func (w *BatchWriter) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case w.flushRq <- reply:
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting rows, flushes what is buffered and stops the flush
// goroutine. It is safe to call more than once.
func (w *BatchWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	close(w.stop)
	<-w.done
	return nil
}

func (w *BatchWriter) run() {
	defer close(w.done)
	ticker := time.NewTicker(w.opts.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.flush()
		case <-w.kick:
			w.flush()
		case reply := <-w.flushRq:
			w.flush()
			close(reply)
		case <-w.stop:
			w.flush()
			return
		}
	}
}

// flush commits everything buffered and reports each row's outcome.
func (w *BatchWriter) flush() {
	for {
		w.mu.Lock()
		n := min(len(w.pending), w.opts.BatchSize)
		if n == 0 {
			w.mu.Unlock()
			return
		}
		batch := w.pending[:n:n]
		w.pending = w.pending[n:]
		w.mu.Unlock()
		w.commit(batch)
	}
}

func (w *BatchWriter) commit(batch []pendingRow) {
	start := time.Now()
	rows := make([]Row, 0, len(batch))
	ok := make([]pendingRow, 0, len(batch))
	for _, p := range batch {
		// A row that cannot be encoded fails alone instead of sinking the batch.
		if err := w.table.stageCheck(p.row); err != nil {
			p.cb.OnFailure(p.row.Key, err)
			continue
		}
		rows = append(rows, p.row)
		ok = append(ok, p)
	}
	if len(rows) == 0 {
		return
	}
	if err := w.table.PutRows(context.Background(), rows); err != nil {
		w.logger.Warn("batch commit failed", logpkg.Int("rows", len(rows)), logpkg.Err(err))
		for _, p := range ok {
			p.cb.OnFailure(p.row.Key, err)
		}
		return
	}
	w.logger.Debug("batch committed", logpkg.Int("rows", len(rows)), logpkg.Duration("elapsed", time.Since(start)))
	for _, p := range ok {
		p.cb.OnSuccess(p.row.Key)
	}
}
