package tablestore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aliyun/tablestore-timeline-sub000/internal/column"
	logpkg "github.com/aliyun/tablestore-timeline-sub000/pkg/log"
)

type recordingCallback struct {
	mu       sync.Mutex
	success  map[RowKey]int
	failures map[RowKey][]error
}

func newRecordingCallback() *recordingCallback {
	return &recordingCallback{success: map[RowKey]int{}, failures: map[RowKey][]error{}}
}

func (c *recordingCallback) OnSuccess(key RowKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.success[key]++
}

func (c *recordingCallback) OnFailure(key RowKey, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[key] = append(c.failures[key], err)
}

func (c *recordingCallback) calls(key RowKey) (int, []error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.success[key], append([]error(nil), c.failures[key]...)
}

func newTestWriter(t *testing.T, tbl *Table, size int, interval time.Duration) *BatchWriter {
	t.Helper()
	w := NewBatchWriter(tbl, BatchWriterOptions{BatchSize: size, FlushInterval: interval, Logger: logpkg.NewNopLogger()})
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestBatchWriterFlush(t *testing.T) {
	tbl := newTestTable(t)
	w := newTestWriter(t, tbl, 1000, time.Hour)
	cb := newRecordingCallback()

	var keys []RowKey
	for i := int64(1); i <= 25; i++ {
		k := RowKey{Timeline: "a", Sequence: i}
		keys = append(keys, k)
		w.Put(k, column.Set{"v": column.Int(i)}, cb)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	for _, k := range keys {
		ok, failed := cb.calls(k)
		if ok != 1 || len(failed) != 0 {
			t.Fatalf("%s: success=%d failures=%v", k, ok, failed)
		}
		cols, err := tbl.GetRow(ctx, k)
		if err != nil {
			t.Fatalf("get %s: %v", k, err)
		}
		if v, _ := cols["v"].Int64(); v != k.Sequence {
			t.Fatalf("%s: v=%d", k, v)
		}
	}
}

func TestBatchWriterFlushesOnSize(t *testing.T) {
	tbl := newTestTable(t)
	w := newTestWriter(t, tbl, 2, time.Hour)

	done := make(chan error, 2)
	cb := RowCallbackFunc(func(_ RowKey, err error) { done <- err })
	w.Put(RowKey{Timeline: "a", Sequence: 1}, column.Set{"v": column.Int(1)}, cb)
	w.Put(RowKey{Timeline: "a", Sequence: 2}, column.Set{"v": column.Int(2)}, cb)
	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("put failed: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("full batch was not flushed")
		}
	}
}

func TestBatchWriterFlushesOnInterval(t *testing.T) {
	tbl := newTestTable(t)
	w := newTestWriter(t, tbl, 1000, 5*time.Millisecond)

	done := make(chan error, 1)
	w.Put(RowKey{Timeline: "a", Sequence: 1}, column.Set{"v": column.Int(1)}, RowCallbackFunc(func(_ RowKey, err error) { done <- err }))
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("put failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("interval flush did not happen")
	}
}

func TestBatchWriterBadRowFailsAlone(t *testing.T) {
	tbl := newTestTable(t)
	w := newTestWriter(t, tbl, 1000, time.Hour)
	cb := newRecordingCallback()

	good := RowKey{Timeline: "a", Sequence: 1}
	bad := RowKey{Timeline: "a", Sequence: 2}
	invalid := RowKey{Timeline: "", Sequence: 3}
	w.Put(good, column.Set{"v": column.Int(1)}, cb)
	w.Put(bad, column.Set{"v": {}}, cb)
	w.Put(invalid, column.Set{"v": column.Int(3)}, cb)
	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if ok, failed := cb.calls(good); ok != 1 || len(failed) != 0 {
		t.Fatalf("good row: success=%d failures=%v", ok, failed)
	}
	if ok, failed := cb.calls(bad); ok != 0 || len(failed) != 1 {
		t.Fatalf("bad row: success=%d failures=%v", ok, failed)
	}
	if _, failed := cb.calls(invalid); len(failed) != 1 || !errors.Is(failed[0], ErrInvalidKey) {
		t.Fatalf("invalid key failures=%v", failed)
	}
}

func TestBatchWriterClose(t *testing.T) {
	tbl := newTestTable(t)
	w := NewBatchWriter(tbl, BatchWriterOptions{BatchSize: 1000, FlushInterval: time.Hour, Logger: logpkg.NewNopLogger()})
	cb := newRecordingCallback()

	before := RowKey{Timeline: "a", Sequence: 1}
	after := RowKey{Timeline: "a", Sequence: 2}
	w.Put(before, column.Set{"v": column.Int(1)}, cb)
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if ok, failed := cb.calls(before); ok != 1 || len(failed) != 0 {
		t.Fatalf("buffered row not drained: success=%d failures=%v", ok, failed)
	}

	w.Put(after, column.Set{"v": column.Int(2)}, cb)
	if _, failed := cb.calls(after); len(failed) != 1 || !errors.Is(failed[0], ErrWriterClosed) {
		t.Fatalf("want ErrWriterClosed, got %v", failed)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("flush after close: %v", err)
	}
}
