// Package locks serializes graph mutations per (dossier, claim). The
// archive-then-upsert sequence on edges spans multiple row writes and is not
// atomic as a unit; holding a keyed lock for the duration of one item keeps
// concurrent submissions for the same claim from interleaving.
package locks

import "context"

// KeyedLock hands out one lock per key. Acquire blocks until the lock is
// held or the context is done, and returns the release func.
type KeyedLock interface {
	Acquire(ctx context.Context, key string) (func(), error)
}
