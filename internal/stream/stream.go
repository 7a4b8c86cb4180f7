// Package stream fan-outs matter message events to active SSE subscribers.
// Subscriptions are in-process only; messages themselves live in the cache
// store.
package stream

import (
	"context"
	"sync"

	"settleline.app/internal/cache"
)

type subscriber struct {
	matterID string
	ch       chan cache.Message
}

// Stream delivers each published message to every subscriber watching the
// same matter.
type Stream struct {
	mu   sync.RWMutex
	subs map[int]subscriber
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]subscriber)}
}

// Subscribe registers a subscriber for one matter and returns a channel
// which will receive its messages. The channel is closed when the provided
// context ends.
func (s *Stream) Subscribe(ctx context.Context, matterID string) <-chan cache.Message {
	ch := make(chan cache.Message, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = subscriber{matterID: matterID, ch: ch}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the message to subscribers of its matter.
func (s *Stream) Publish(msg cache.Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		if sub.matterID != msg.MatterID {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
