package timeline

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/aliyun/tablestore-timeline-sub000/internal/codec"
	"github.com/aliyun/tablestore-timeline-sub000/internal/column"
	"github.com/aliyun/tablestore-timeline-sub000/internal/promise"
	"github.com/aliyun/tablestore-timeline-sub000/internal/scan"
	"github.com/aliyun/tablestore-timeline-sub000/internal/tablestore"
	logpkg "github.com/aliyun/tablestore-timeline-sub000/pkg/log"
)

// ErrNoAsyncWriter is reported by AppendAsync when the store has no writer.
var ErrNoAsyncWriter = errors.New("timeline: async writes not configured")

// Message is what callers write.
type Message struct {
	// ID identifies the message to the application. Append fills in a random
	// UUID when empty.
	ID         string
	Content    []byte
	Attributes map[string]string
}

// Entry is a stored message with its sequence id.
type Entry struct {
	SequenceID int64
	Message
}

// Table is the row storage a Store writes to.
type Table interface {
	tablestore.RowWriter
	tablestore.RowUpdater
	tablestore.RowReader
	tablestore.RangeReader
	DeleteRow(ctx context.Context, key tablestore.RowKey) error
	NextSequence() int64
	CommitSignal() <-chan struct{}
}

// Writer buffers rows and reports each outcome through a callback.
type Writer interface {
	Put(key tablestore.RowKey, cols column.Set, cb tablestore.RowCallback)
}

// Options configures a Store.
type Options struct {
	Codec *codec.Codec
	// Writer enables AppendAsync. Optional.
	Writer Writer
	Logger logpkg.Logger
}

// Store reads and writes messages of every timeline in one table.
type Store struct {
	table  Table
	codec  *codec.Codec
	writer Writer
	logger logpkg.Logger
}

// NewStore returns a Store over table. A nil codec selects the default
// codec configuration.
func NewStore(table Table, opts Options) (*Store, error) {
	if table == nil {
		return nil, errors.New("timeline: nil table")
	}
	c := opts.Codec
	if c == nil {
		var err error
		if c, err = codec.New(codec.DefaultConfig()); err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	return &Store{table: table, codec: c, writer: opts.Writer, logger: logger.With(logpkg.Component("timeline"))}, nil
}

// Timeline returns a handle on one timeline. Handles are cheap and hold no
// state besides the id.
func (s *Store) Timeline(id string) *Timeline {
	return &Timeline{store: s, id: id, logger: s.logger.With(logpkg.Timeline(id))}
}

// Timeline is a handle on the messages of one timeline id.
type Timeline struct {
	store  *Store
	id     string
	logger logpkg.Logger
}

// ID returns the timeline id.
func (t *Timeline) ID() string { return t.id }

// encode builds the column set of m. Message ids are only written when set.
func (t *Timeline) encode(m Message) (column.Set, error) {
	c := t.store.codec
	cols, err := c.Encode(m.Content)
	if err != nil {
		return nil, err
	}
	if cols, err = c.Merge(cols, m.Attributes); err != nil {
		return nil, err
	}
	if m.ID != "" {
		cols = c.SetMessageID(cols, m.ID)
	}
	return cols, nil
}

func (t *Timeline) decode(seq int64, cols column.Set) (Entry, error) {
	rec, err := t.store.codec.Decode(cols)
	if err != nil {
		return Entry{}, fmt.Errorf("timeline %s: sequence %d: %w", t.id, seq, err)
	}
	return Entry{
		SequenceID: seq,
		Message:    Message{ID: rec.MessageID, Content: rec.Payload, Attributes: rec.Attributes},
	}, nil
}

// prepare assigns a message id when missing and encodes m under a new key.
func (t *Timeline) prepare(m Message) (tablestore.RowKey, Message, column.Set, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	cols, err := t.encode(m)
	if err != nil {
		return tablestore.RowKey{}, m, nil, err
	}
	return tablestore.RowKey{Timeline: t.id, Sequence: t.store.table.NextSequence()}, m, cols, nil
}

// Append stores m under a new sequence id.
func (t *Timeline) Append(ctx context.Context, m Message) (Entry, error) {
	key, m, cols, err := t.prepare(m)
	if err != nil {
		return Entry{}, err
	}
	if err := t.store.table.PutRow(ctx, key, cols); err != nil {
		t.logger.Warn("append failed", logpkg.Int64("sequence", key.Sequence), logpkg.Err(err))
		return Entry{}, err
	}
	return Entry{SequenceID: key.Sequence, Message: m}, nil
}

// AppendAsync buffers m in the store's writer. The returned promise
// completes once the row is committed, or fails with an error matching both
// promise.ErrWriteFailed and the cause. Encoding errors fail the promise
// before it is returned.
func (t *Timeline) AppendAsync(m Message) *promise.Promise[Entry] {
	p := promise.New[Entry]()
	if t.store.writer == nil {
		_ = p.Fail(ErrNoAsyncWriter)
		return p
	}
	key, m, cols, err := t.prepare(m)
	if err != nil {
		_ = p.Fail(err)
		return p
	}
	t.store.writer.Put(key, cols, &appendCallback{promise: p, entry: Entry{SequenceID: key.Sequence, Message: m}, logger: t.logger})
	return p
}

// appendCallback resolves an AppendAsync promise from the writer's flush
// goroutine.
type appendCallback struct {
	promise *promise.Promise[Entry]
	entry   Entry
	logger  logpkg.Logger
}

func (c *appendCallback) OnSuccess(tablestore.RowKey) { _ = c.promise.Complete(c.entry) }

func (c *appendCallback) OnFailure(key tablestore.RowKey, err error) {
	c.logger.Warn("async append failed", logpkg.Int64("sequence", key.Sequence), logpkg.Err(err))
	_ = c.promise.Fail(err)
}

// Update overwrites the message at seq in place. Content is replaced in full,
// even when it is shorter than before. Attributes present in m overwrite
// stored ones; stored attributes absent from m are kept. An empty m.ID keeps
// the stored message id. A checksum left by an earlier write is removed when
// the new content carries none. The read and the write are atomic with
// respect to Delete.
func (t *Timeline) Update(ctx context.Context, seq int64, m Message) (Entry, error) {
	cols, err := t.encode(m)
	if err != nil {
		return Entry{}, err
	}
	key := tablestore.RowKey{Timeline: t.id, Sequence: seq}
	row, err := t.store.table.UpdateRow(ctx, key, cols, t.store.codec.Config().StaleColumns(cols))
	if err != nil {
		if !errors.Is(err, tablestore.ErrRowNotFound) {
			t.logger.Warn("update failed", logpkg.Int64("sequence", seq), logpkg.Err(err))
		}
		return Entry{}, err
	}
	return t.decode(seq, row)
}

// Get reads the message at seq.
func (t *Timeline) Get(ctx context.Context, seq int64) (Entry, error) {
	cols, err := t.store.table.GetRow(ctx, tablestore.RowKey{Timeline: t.id, Sequence: seq})
	if err != nil {
		return Entry{}, err
	}
	return t.decode(seq, cols)
}

// Delete removes the message at seq. Deleting a missing message is not an
// error.
func (t *Timeline) Delete(ctx context.Context, seq int64) error {
	return t.store.table.DeleteRow(ctx, tablestore.RowKey{Timeline: t.id, Sequence: seq})
}

// ScanOptions selects entries for Scan.
type ScanOptions struct {
	Range scan.Range
	// Filter is an optional CEL expression; see the package documentation.
	Filter string
}

// Scan reads the entries in opts.Range and keeps those matching the filter.
// The returned sequence resumes the scan with opts.Range.Resume, or is 0 when
// the range is exhausted.
func (t *Timeline) Scan(ctx context.Context, opts ScanOptions) ([]Entry, int64, error) {
	f, err := compileFilter(opts.Filter)
	if err != nil {
		return nil, 0, err
	}
	rows, next, err := t.store.table.GetRange(ctx, t.id, opts.Range)
	if err != nil {
		return nil, 0, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e, err := t.decode(row.Key.Sequence, row.Columns)
		if err != nil {
			return nil, 0, err
		}
		if f.Match(e) {
			entries = append(entries, e)
		}
	}
	return entries, next, nil
}

// Tail returns up to limit entries with sequence ids greater than after,
// blocking until at least one exists or ctx is done. A limit of 0 means no
// limit.
func (t *Timeline) Tail(ctx context.Context, after int64, limit int64) ([]Entry, error) {
	if after < 0 || after == math.MaxInt64 {
		return nil, fmt.Errorf("%w: tail after %d", scan.ErrInvalidRange, after)
	}
	r := scan.Forward().From(after + 1).To(math.MaxInt64).Limit(limit)
	for {
		sig := t.store.table.CommitSignal()
		entries, _, err := t.Scan(ctx, ScanOptions{Range: r})
		if err != nil || len(entries) > 0 {
			return entries, err
		}
		select {
		case <-sig:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
