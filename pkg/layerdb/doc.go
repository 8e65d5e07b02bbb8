// Package layerdb is a single-file, in-process key-value store.
//
// A handle keeps the whole mapping in memory and writes a complete snapshot
// to its file on Dump, SaveAs and Close. Snapshots replace the previous file
// atomically (temporary file, fsync, rename), so a crash during a dump leaves
// the last good snapshot in place.
//
//	db, err := layerdb.Load("a.db")
//	if err != nil {
//		return err
//	}
//	err = db.SetAny("employee1", map[string]any{"name": "John", "age": 10})
//	...
//	v, ok, err := db.Get("employee1")
//	...
//	err = db.Close() // persists pending changes
//
// Errors:
//   - *CorruptStoreError: the file exists but is not a valid snapshot. Load
//     never returns an empty store in its place.
//   - *IOError: a filesystem failure. Memory is unchanged; retry or SaveAs.
//   - ErrClosed: any operation after Close, including a second Close.
//
// A missing key is not an error: Get reports it with ok == false.
//
// Handles do no locking. Concurrent use of one handle, or two handles on
// the same path, is undefined.
package layerdb
