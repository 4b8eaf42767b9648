// Package lease provides named run leases so that a periodic job runs on one
// instance at a time.
package lease

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Lease grants exclusive, expiring ownership of a named job run.
type Lease interface {
	// Acquire takes name for holder until ttl elapses. It reports false when
	// another holder owns an unexpired lease.
	Acquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	// Release gives up name if holder still owns it.
	Release(ctx context.Context, name, holder string) error
}

// Holder returns an identifier for this process.
func Holder() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("%s/%d", host, os.Getpid())
}
