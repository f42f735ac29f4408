package localstore

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/kenala/internal/client/watch"
	"github.com/dmitrijs2005/kenala/internal/logging"
)

// observe runs load once immediately and again after every hub signal,
// sending each result on the returned channel. The channel is closed when
// ctx is done, when the teardown function is called, or after load fails.
//
// The subscription is registered before the first load so a write that
// lands between the snapshot and the first receive is not lost.
func observe[T any](ctx context.Context, hub *watch.Hub, log logging.Logger, load func(context.Context) ([]T, error)) (<-chan []T, func()) {
	signals, unsubscribe := hub.Subscribe()
	out := make(chan []T)
	stop := make(chan struct{})

	var once sync.Once
	teardown := func() {
		once.Do(func() {
			close(stop)
			unsubscribe()
		})
	}

	go func() {
		defer close(out)
		defer teardown()

		for {
			snapshot, err := load(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Error(ctx, "reactive query failed", "error", err)
				}
				return
			}

			select {
			case out <- snapshot:
			case <-stop:
				return
			case <-ctx.Done():
				return
			}

			select {
			case _, ok := <-signals:
				if !ok {
					return
				}
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, teardown
}
