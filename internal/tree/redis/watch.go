package redis

import (
	"context"
	"sync"

	"github.com/redis/rueidis"

	"github.com/canopy-data/canopy/internal/tree"
)

// Watch subscribes to the resource's event channel and invokes fn on
// every published mutation tick. The subscription runs on its own
// connection until stop is called or ctx is done.
func (s *Store) Watch(ctx context.Context, path string, fn func()) (func(), error) {
	resource, _ := tree.SplitPath(path)
	channel := s.eventChannel(resource)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		cmd := s.b().Subscribe().Channel(channel).Build()
		// Receive blocks until the context is canceled or the
		// connection drops; each message is one mutation tick.
		err := s.client.Receive(ctx, cmd, func(_ rueidis.PubSubMessage) {
			fn()
		})
		if err != nil && ctx.Err() == nil && s.onWatchErr != nil {
			s.onWatchErr(&tree.Error{Op: tree.OpSub, Err: err})
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	return stop, nil
}
