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
	"testing"
	"time"
)

const topic Topic = "test_topic"

func recvOne(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestPublishSubscribe(t *testing.T) {
	bus := New()
	defer bus.Close()

	ch, unsub := bus.Subscribe(context.Background(), topic, false)
	defer unsub()

	bus.Publish(topic, 42)
	if ev := recvOne(t, ch); ev != 42 {
		t.Errorf("expected 42, got %v", ev)
	}
}

func TestSlowSubscriberSeesLatestOnly(t *testing.T) {
	bus := New()
	defer bus.Close()

	ch, unsub := bus.Subscribe(context.Background(), topic, false)
	defer unsub()

	// subscriber not draining: each publish displaces the pending event
	for i := 1; i <= 10; i++ {
		bus.Publish(topic, i)
	}

	if ev := recvOne(t, ch); ev != 10 {
		t.Errorf("expected only the latest value 10, got %v", ev)
	}
	select {
	case ev := <-ch:
		t.Errorf("unexpected backlog event %v", ev)
	default:
	}

	if _, replaced := bus.Stats(); replaced != 9 {
		t.Errorf("expected 9 displaced events, got %d", replaced)
	}
}

func TestSubscribeWithLast(t *testing.T) {
	bus := New()
	defer bus.Close()

	bus.Publish(topic, "before")

	ch, unsub := bus.Subscribe(context.Background(), topic, true)
	defer unsub()

	// late subscriber starts from the stored last event
	if ev := recvOne(t, ch); ev != "before" {
		t.Errorf("expected stored event, got %v", ev)
	}
}

func TestSubscribeWithoutLast(t *testing.T) {
	bus := New()
	defer bus.Close()

	bus.Publish(topic, "before")

	ch, unsub := bus.Subscribe(context.Background(), topic, false)
	defer unsub()

	select {
	case ev := <-ch:
		t.Errorf("unexpected replay of %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGetLast(t *testing.T) {
	bus := New()
	defer bus.Close()

	if _, ok := bus.GetLast(topic); ok {
		t.Error("expected no last event on a fresh topic")
	}

	bus.Publish(topic, 1)
	bus.Publish(topic, 2)

	if ev, ok := bus.GetLast(topic); !ok || ev != 2 {
		t.Errorf("expected last event 2, got %v (ok=%v)", ev, ok)
	}
}

func TestTopicsAreIndependent(t *testing.T) {
	bus := New()
	defer bus.Close()

	chA, unsubA := bus.Subscribe(context.Background(), "topic_a", false)
	defer unsubA()
	chB, unsubB := bus.Subscribe(context.Background(), "topic_b", false)
	defer unsubB()

	bus.Publish("topic_a", "a")

	if ev := recvOne(t, chA); ev != "a" {
		t.Errorf("expected event on topic_a, got %v", ev)
	}
	select {
	case ev := <-chB:
		t.Errorf("topic_b leaked event %v", ev)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := New()
	defer bus.Close()

	ch, unsub := bus.Subscribe(context.Background(), topic, false)
	unsub()

	// channel is closed once the unsubscribe takes effect
	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-ch:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("channel never closed after unsubscribe")
		}
	}
}

func TestContextCancelUnsubscribes(t *testing.T) {
	bus := New()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := bus.Subscribe(ctx, topic, false)
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-ch:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("channel never closed after context cancel")
		}
	}
}

func TestCloseDropsEverything(t *testing.T) {
	bus := New()

	ch, _ := bus.Subscribe(context.Background(), topic, false)
	bus.Close()

	if _, open := <-ch; open {
		t.Error("expected subscriber channel closed by Close")
	}

	// publish after close is a no-op
	bus.Publish(topic, 1)
	if _, ok := bus.GetLast(topic); ok {
		t.Error("expected no stored events after Close")
	}

	// subscribe after close returns a closed channel
	ch2, _ := bus.Subscribe(context.Background(), topic, false)
	if _, open := <-ch2; open {
		t.Error("expected closed channel from Subscribe after Close")
	}
}
