package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// How long to wait before trying to re-establish a broken change stream.
const watchRetryInterval = 2 * time.Second

// watchChanges turns a collection change stream into a tick channel: one
// (coalesced) tick per observed change. Consumers re-read whatever snapshot
// they project, so ticks carry no payload and over-notification is harmless.
//
// The channel is closed when ctx is cancelled. If the stream breaks, a tick
// is emitted immediately (so consumers re-read and can surface an empty
// snapshot) and the stream is re-established in the background; listening
// never stops before cancellation.
func watchChanges(ctx context.Context, coll *mongo.Collection) (<-chan struct{}, error) {
	stream, err := coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, err
	}

	ticks := make(chan struct{}, 1)
	go func() {
		defer close(ticks)
		cs := stream
		for {
			for cs.Next(ctx) {
				notify(ticks)
			}
			cs.Close(context.Background())
			if ctx.Err() != nil {
				return
			}

			// The stream broke mid-flight. Prompt a re-read now, then resume.
			notify(ticks)
			cs = nil
			for cs == nil {
				next, watchErr := coll.Watch(ctx, mongo.Pipeline{})
				if watchErr == nil {
					cs = next
					break
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(watchRetryInterval):
				}
			}
		}
	}()

	return ticks, nil
}

// notify delivers a tick without blocking; a pending tick already covers any
// number of coalesced changes.
func notify(ticks chan struct{}) {
	select {
	case ticks <- struct{}{}:
	default:
	}
}
