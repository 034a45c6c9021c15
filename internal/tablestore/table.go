package tablestore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/aliyun/tablestore-timeline-sub000/internal/column"
	"github.com/aliyun/tablestore-timeline-sub000/internal/scan"
	pebblestore "github.com/aliyun/tablestore-timeline-sub000/internal/storage/pebble"
	"github.com/aliyun/tablestore-timeline-sub000/pkg/id"
)

// ErrRowNotFound is returned by GetRow when a row has no cells.
var ErrRowNotFound = errors.New("tablestore: row not found")

// RowKey is the primary key of a timeline row.
type RowKey struct {
	Timeline string
	Sequence int64
}

func (k RowKey) String() string { return fmt.Sprintf("%s/%d", k.Timeline, k.Sequence) }

// Row is a primary key with its columns.
type Row struct {
	Key     RowKey
	Columns column.Set
}

// RowWriter puts a column set under a key.
type RowWriter interface {
	PutRow(ctx context.Context, key RowKey, cols column.Set) error
}

// RowUpdater overlays cells onto an existing row.
type RowUpdater interface {
	UpdateRow(ctx context.Context, key RowKey, cols column.Set, drop []string) (column.Set, error)
}

// RowReader reads back every column under a key.
type RowReader interface {
	GetRow(ctx context.Context, key RowKey) (column.Set, error)
}

// RangeReader scans the rows of one timeline.
type RangeReader interface {
	GetRange(ctx context.Context, timeline string, r scan.Range) ([]Row, int64, error)
}

// Meta is the persisted table descriptor.
type Meta struct {
	Name        string `json:"name"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

// Table is a Pebble-backed table of timeline rows.
type Table struct {
	db   *pebblestore.DB
	name string
	meta Meta
	ids  *id.Generator

	// mu serializes commits so the persisted last sequence never regresses.
	mu       sync.Mutex
	lastSeen int64
	// notifyCh is closed and replaced after every commit.
	notifyCh chan struct{}
}

// OpenTable creates the table metadata if absent and restores the sequence
// floor from the last committed row.
func OpenTable(db *pebblestore.DB, name string) (*Table, error) {
	if err := validateTableName(name); err != nil {
		return nil, err
	}
	meta, err := ensureMeta(db, name)
	if err != nil {
		return nil, err
	}
	t := &Table{db: db, name: name, meta: meta, ids: id.NewGenerator(), notifyCh: make(chan struct{})}
	if b, err := db.Get(keyTableLast(name)); err == nil && len(b) >= 8 {
		t.lastSeen = int64(binary.BigEndian.Uint64(b[:8]))
		t.ids.Observe(t.lastSeen)
	} else if err != nil && !errors.Is(err, pebblestore.ErrNotFound) {
		return nil, fmt.Errorf("tablestore: read last sequence: %w", err)
	}
	return t, nil
}

// ensureMeta is idempotent: it returns the stored descriptor when present.
func ensureMeta(db *pebblestore.DB, name string) (Meta, error) {
	key := keyTableMeta(name)
	if b, err := db.Get(key); err == nil && len(b) > 0 {
		var m Meta
		if err := json.Unmarshal(b, &m); err == nil {
			return m, nil
		}
		// fallthrough to rewrite if corrupted
	}
	m := Meta{Name: name, CreatedAtMs: time.Now().UnixMilli()}
	b, err := json.Marshal(m)
	if err != nil {
		return Meta{}, err
	}
	if err := db.Set(key, b); err != nil {
		return Meta{}, fmt.Errorf("tablestore: write table meta: %w", err)
	}
	return m, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Meta returns the table descriptor.
func (t *Table) Meta() Meta { return t.meta }

// NextSequence returns a new sequence id, greater than any committed one.
func (t *Table) NextSequence() int64 { return t.ids.Next() }

// PutRow writes cols under key without touching the row's other cells.
func (t *Table) PutRow(ctx context.Context, key RowKey, cols column.Set) error {
	return t.commit(ctx, []Row{{Key: key, Columns: cols}}, false)
}

// ReplaceRow deletes every cell of the row, then writes cols, atomically.
func (t *Table) ReplaceRow(ctx context.Context, key RowKey, cols column.Set) error {
	return t.commit(ctx, []Row{{Key: key, Columns: cols}}, true)
}

// PutRows writes several rows in one atomic batch.
func (t *Table) PutRows(ctx context.Context, rows []Row) error {
	return t.commit(ctx, rows, false)
}

// stageRow adds the cells of row to b.
func (t *Table) stageRow(b *pebble.Batch, row Row, replace bool) error {
	if err := validateRowKey(row.Key); err != nil {
		return err
	}
	seq := uint64(row.Key.Sequence)
	if replace {
		lo := keyRowPrefix(t.name, row.Key.Timeline, seq)
		hi := keyRowPrefix(t.name, row.Key.Timeline, seq+1)
		if err := b.DeleteRange(lo, hi, nil); err != nil {
			return err
		}
	}
	for name, v := range row.Columns {
		val, err := encodeCell(v)
		if err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}
		if err := b.Set(keyCell(t.name, row.Key.Timeline, seq, name), val, nil); err != nil {
			return err
		}
	}
	return nil
}

// stageCheck reports whether row would be rejected by stageRow.
func (t *Table) stageCheck(row Row) error {
	if err := validateRowKey(row.Key); err != nil {
		return err
	}
	for name, v := range row.Columns {
		if v.Kind() == column.KindUnspecified {
			return fmt.Errorf("tablestore: put %s: column %q has no value", row.Key, name)
		}
	}
	return nil
}

func (t *Table) commit(ctx context.Context, rows []Row, replace bool) error {
	if len(rows) == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.db.NewBatch()
	defer b.Close()

	maxSeq := t.lastSeen
	for _, row := range rows {
		if err := t.stageRow(b, row, replace); err != nil {
			return fmt.Errorf("tablestore: put %s: %w", row.Key, err)
		}
		maxSeq = max(maxSeq, row.Key.Sequence)
	}
	return t.commitLocked(ctx, b, maxSeq)
}

// commitLocked persists maxSeq when it advances, commits b and wakes
// waiters. t.mu must be held.
func (t *Table) commitLocked(ctx context.Context, b *pebble.Batch, maxSeq int64) error {
	if maxSeq > t.lastSeen {
		var last [8]byte
		binary.BigEndian.PutUint64(last[:], uint64(maxSeq))
		if err := b.Set(keyTableLast(t.name), last[:], nil); err != nil {
			return err
		}
	}
	if err := t.db.CommitBatch(ctx, b); err != nil {
		return fmt.Errorf("tablestore: commit: %w", err)
	}
	t.lastSeen = maxSeq
	t.ids.Observe(maxSeq)
	// wake waiters
	close(t.notifyCh)
	t.notifyCh = make(chan struct{})
	return nil
}

// UpdateRow overlays cols onto an existing row and removes the drop cells,
// atomically with respect to other writes and DeleteRow. It returns the
// resulting row, or ErrRowNotFound when the row does not exist.
func (t *Table) UpdateRow(ctx context.Context, key RowKey, cols column.Set, drop []string) (column.Set, error) {
	if err := t.stageCheck(Row{Key: key, Columns: cols}); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	old, err := t.GetRow(ctx, key)
	if err != nil {
		return nil, err
	}
	b := t.db.NewBatch()
	defer b.Close()

	seq := uint64(key.Sequence)
	merged := old.Clone()
	for _, name := range drop {
		if _, ok := cols[name]; ok {
			continue
		}
		if _, ok := merged[name]; !ok {
			continue
		}
		if err := b.Delete(keyCell(t.name, key.Timeline, seq, name), nil); err != nil {
			return nil, err
		}
		delete(merged, name)
	}
	if err := t.stageRow(b, Row{Key: key, Columns: cols}, false); err != nil {
		return nil, fmt.Errorf("tablestore: update %s: %w", key, err)
	}
	if err := t.commitLocked(ctx, b, max(t.lastSeen, key.Sequence)); err != nil {
		return nil, err
	}
	return merged.Overlay(cols), nil
}

// CommitSignal returns a channel that is closed by the next successful put.
// Take the signal before reading so that a commit racing with the read is
// not missed.
func (t *Table) CommitSignal() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.notifyCh
}

// GetRow returns every cell of the row.
func (t *Table) GetRow(ctx context.Context, key RowKey) (column.Set, error) {
	if err := validateRowKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seq := uint64(key.Sequence)
	lo := keyRowPrefix(t.name, key.Timeline, seq)
	hi := keyRowPrefix(t.name, key.Timeline, seq+1)
	iter, err := t.db.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	prefix := keyTimelinePrefix(t.name, key.Timeline)
	set := column.Set{}
	for ok := iter.First(); ok; ok = iter.Next() {
		_, name, ok := parseCellKey(prefix, iter.Key())
		if !ok {
			continue
		}
		v, err := decodeCell(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("tablestore: row %s column %q: %w", key, name, err)
		}
		set[name] = v
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRowNotFound, key)
	}
	return set, nil
}

// DeleteRow removes every cell of the row.
func (t *Table) DeleteRow(ctx context.Context, key RowKey) error {
	if err := validateRowKey(key); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	seq := uint64(key.Sequence)
	b := t.db.NewBatch()
	defer b.Close()
	if err := b.DeleteRange(keyRowPrefix(t.name, key.Timeline, seq), keyRowPrefix(t.name, key.Timeline, seq+1), nil); err != nil {
		return err
	}
	return t.db.CommitBatch(ctx, b)
}

// GetRange returns up to r.Max() rows of timeline between r.Start()
// (inclusive) and r.End() (exclusive) in r.Direction() order. A limit of 0
// means no limit. The returned sequence is where the next page starts, or 0
// when the range is exhausted.
func (t *Table) GetRange(ctx context.Context, timeline string, r scan.Range) ([]Row, int64, error) {
	if err := r.Validate(); err != nil {
		return nil, 0, err
	}
	if err := validateRowKey(RowKey{Timeline: timeline}); err != nil {
		return nil, 0, err
	}

	var lo, hi []byte
	if r.Direction() == scan.DirectionForward {
		lo = keyRowPrefix(t.name, timeline, uint64(r.Start()))
		hi = keyRowPrefix(t.name, timeline, uint64(r.End()))
	} else {
		lo = keyRowPrefix(t.name, timeline, uint64(r.End())+1)
		hi = keyRowPrefix(t.name, timeline, uint64(r.Start())+1)
	}
	iter, err := t.db.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return nil, 0, err
	}
	defer iter.Close()

	prefix := keyTimelinePrefix(t.name, timeline)
	var (
		rows []Row
		cur  *Row
		next int64
	)
	step, ok := iter.Next, iter.First()
	if r.Direction() == scan.DirectionBackward {
		step, ok = iter.Prev, iter.Last()
	}
	for ; ok; ok = step() {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		seq, name, valid := parseCellKey(prefix, iter.Key())
		if !valid {
			continue
		}
		if cur == nil || cur.Key.Sequence != seq {
			if r.Max() > 0 && int64(len(rows)) == r.Max() {
				next = seq
				break
			}
			rows = append(rows, Row{Key: RowKey{Timeline: timeline, Sequence: seq}, Columns: column.Set{}})
			cur = &rows[len(rows)-1]
		}
		v, err := decodeCell(iter.Value())
		if err != nil {
			return nil, 0, fmt.Errorf("tablestore: row %s column %q: %w", cur.Key, name, err)
		}
		cur.Columns[name] = v
	}
	if err := iter.Error(); err != nil {
		return nil, 0, err
	}
	return rows, next, nil
}
