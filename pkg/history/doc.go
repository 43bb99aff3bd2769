/*
Package history provides Mend's record of classified errors and recovery
actions.

The Store is the in-memory system of record: a bounded, thread-safe ring of
classified errors and recovery actions that the classifier writes, the
engine updates, and the API reads. An optional bbolt-backed Archive mirrors
every record to disk so the history survives daemon restarts.

# Architecture

	┌──────────────────── HISTORY ──────────────────────────────┐
	│                                                           │
	│  classifier ── Record ──►┌─────────────────────┐          │
	│  engine ── RecordAction ►│       Store         │          │
	│  engine ── MarkResolved ►│                     │          │
	│                          │  errors   (ring,    │          │
	│  api ◄── Recent/Stats ───│   cap 1000, FIFO)   │          │
	│  api ◄── RecentActions ──│  actions  (ring)    │          │
	│                          └─────────┬───────────┘          │
	│                                    │ best effort          │
	│                                    ▼                      │
	│                          ┌─────────────────────┐          │
	│                          │      Archive        │          │
	│                          │  bbolt, JSON values │          │
	│                          │  key: RFC3339Nano   │          │
	│                          │       + "/" + id    │          │
	│                          └─────────────────────┘          │
	└───────────────────────────────────────────────────────────┘

# Store Semantics

  - Bounded: capacity defaults to 1000 records per kind (errors, actions);
    the oldest records are evicted first.
  - Copy-on-read: every accessor returns deep copies, so API handlers and
    tests can hold results without racing writers.
  - Mutation goes through the Store: MarkResolved, IncrementAttempts, and
    Attempts operate on the canonical record by error ID.

# Archive Semantics

The Archive mirrors writes best-effort: a failed disk write logs a warning
and the in-memory store stays authoritative. Keys are timestamp-prefixed so
a cursor scan returns records in chronological order, and the ID suffix
keeps same-instant records distinct. MarkResolved re-puts the record under
the same key, overwriting it in place. Buckets are pruned to the store's
capacity on write.

On startup Rehydrate loads the archived records back into the rings so
attempt counts, resolution and stats survive restarts.

# Usage

	arch, err := history.NewArchive(cfg.DataDir)
	store := history.NewStore(
		history.WithCapacity(cfg.HistoryCapacity),
		history.WithArchive(arch),
	)

	store.Record(cerr)
	store.IncrementAttempts(cerr.ID)
	store.MarkResolved(cerr.ID)

	recent := store.Recent(50)
	stats := store.Stats()

# See Also

  - pkg/classifier and pkg/engine for the writers
  - pkg/api for the read surface
*/
package history
