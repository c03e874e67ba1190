// Copyright (C) 2025 Josh Simonot
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
)

type Topic string
type Event = any

// Bus is an in-memory pub/sub keyed by topic name. Each subscriber has a
// buffer of exactly one event: publishing to a subscriber that has not yet
// drained its channel replaces the pending event, so a slow consumer always
// observes the most recent value rather than a backlog. Sensor and setpoint
// updates on a control vehicle only ever care about the latest reading,
// which is why there is no deeper queueing.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Topic]map[uint64]chan Event
	last   map[Topic]Event
	nextID uint64
	closed atomic.Bool

	published atomic.Int64
	replaced  atomic.Int64
}

// New returns an initialized Bus.
func New() *Bus {
	return &Bus{
		subs: make(map[Topic]map[uint64]chan Event),
		last: make(map[Topic]Event),
	}
}

// Publish delivers ev to every subscriber of topic and records it as the
// topic's last event. Never blocks the publisher.
func (b *Bus) Publish(topic Topic, ev Event) {
	if b.closed.Load() {
		return
	}
	b.published.Add(1)

	b.mu.Lock()
	b.last[topic] = ev
	chans := make([]chan Event, 0, len(b.subs[topic]))
	for _, ch := range b.subs[topic] {
		chans = append(chans, ch)
	}
	b.mu.Unlock()

	for _, ch := range chans {
		b.replaceSend(ch, ev)
	}
}

// replaceSend delivers ev to ch, displacing an undrained older event. All
// channel operations are non-blocking so one stuck subscriber cannot stall
// the publisher.
func (b *Bus) replaceSend(ch chan Event, ev Event) {
	select {
	case ch <- ev:
		return
	default:
	}
	// full: drop the stale event, then retry the send once
	select {
	case <-ch:
		b.replaced.Add(1)
	default:
	}
	select {
	case ch <- ev:
	default:
		// lost the race with another publisher; their event is newer anyway
	}
}

// Subscribe registers a subscriber for topic and returns its receive channel
// plus an unsubscribe func. If withLast is set and the topic has a stored
// last event, it is delivered immediately so late subscribers start from the
// current state. The subscription is removed and the channel closed when ctx
// is canceled or unsubscribe is called.
func (b *Bus) Subscribe(ctx context.Context, topic Topic, withLast bool) (<-chan Event, func()) {
	if b.closed.Load() {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	ch := make(chan Event, 1)
	id := atomic.AddUint64(&b.nextID, 1)

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]chan Event)
	}
	b.subs[topic][id] = ch
	last, hasLast := b.last[topic]
	b.mu.Unlock()

	if withLast && hasLast {
		b.replaceSend(ch, last)
	}

	var once sync.Once
	done := make(chan struct{})
	unsub := func() {
		once.Do(func() { close(done) })
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		b.mu.Lock()
		owned := false
		if m, ok := b.subs[topic]; ok {
			if _, ok := m[id]; ok {
				delete(m, id)
				owned = true
			}
			if len(m) == 0 {
				delete(b.subs, topic)
			}
		}
		b.mu.Unlock()
		// Close already closed the channel if it took ownership first
		if owned {
			close(ch)
		}
	}()

	return ch, unsub
}

// GetLast returns the last event published to topic, if any.
func (b *Bus) GetLast(topic Topic) (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.last[topic]
	return v, ok
}

// Stats reports how many events were published and how many pending events
// were displaced by newer ones.
func (b *Bus) Stats() (published, replaced int64) {
	return b.published.Load(), b.replaced.Load()
}

// Close shuts the bus down. After Close, Publish is a no-op and Subscribe
// returns a closed channel.
func (b *Bus) Close() {
	if b.closed.Swap(true) {
		return
	}
	b.mu.Lock()
	for _, m := range b.subs {
		for _, ch := range m {
			close(ch)
		}
	}
	b.subs = nil
	b.last = nil
	b.mu.Unlock()
}
