// Package cleanup removes expired tokens on a periodic timer,
// independent of request handling. Each run is a plain DELETE of
// expired rows, so overlapping runs and concurrent token issuance are
// harmless.
package cleanup

import (
	"context"
	"log"
	"time"
)

// Store is the slice of the token stores the janitor needs.
type Store interface {
	DeleteAllExpired(ctx context.Context) (int64, error)
}

// Janitor periodically purges expired rows from its stores.
type Janitor struct {
	stores   []Store
	interval time.Duration
}

// NewJanitor builds a janitor over the given stores. interval <= 0
// selects the daily default.
func NewJanitor(interval time.Duration, stores ...Store) *Janitor {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Janitor{stores: stores, interval: interval}
}

// Run cleans immediately, then on every tick until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	j.sweep(ctx)

	t := time.NewTicker(j.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	var total int64
	for _, s := range j.stores {
		n, err := s.DeleteAllExpired(ctx)
		if err != nil {
			log.Printf("cleanup: expired token sweep failed: %v", err)
			continue
		}
		total += n
	}
	if total > 0 {
		log.Printf("cleanup: removed %d expired tokens", total)
	}
}
