// Package pebblestore opens the Pebble database behind the timeline table
// store and commits its batches under the configured fsync policy. Commit and
// read latencies are reported to an optional Observer.
//
// A table store stages every cell of a row in one batch:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir:  dir,
//	    Fsync:    pebblestore.FsyncModeInterval,
//	    Observer: slowCommits,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	b := db.NewBatch()
//	defer b.Close()
//	_ = b.Set(cellKey, encodedCell, nil)
//	_ = b.Set(lastSeqKey, seqBE8, nil)
//	if err := db.CommitBatch(ctx, b); err != nil {
//	    return err
//	}
//
// Rows are read back with NewIter bounded to the row's key prefix; small
// descriptors such as the table metadata use Get and Set.
package pebblestore
