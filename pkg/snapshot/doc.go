// Package snapshot persists the values of a signal graph.
//
// A Store saves and loads a Snapshot, the JSON value of every node keyed by
// name. DiskStore writes a local file and S3Store writes one object in a
// bucket. Saver saves periodically and once more on shutdown:
//
//	store := snapshot.NewDiskStore("signals.snapshot.json")
//	snap, _ := store.Load(ctx)
//	registry.Restore(snap)
//
//	saver := &snapshot.Saver{Store: store, Source: registry.Snapshot, Interval: time.Minute}
//	go saver.Serve(ctx)
package snapshot
