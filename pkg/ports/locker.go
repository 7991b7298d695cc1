package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken with DistributedLocker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises turns of one conversation across replicas
// that share a StateStore.
type DistributedLocker interface {
	// Lock blocks until key is held or ctx is done. The lock expires after
	// ttl even if never released, so a crashed replica cannot wedge a session.
	// The returned UnlockFunc must be called once the turn is persisted.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
