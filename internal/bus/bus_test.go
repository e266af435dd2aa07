package bus

import (
	"sync"
	"testing"
)

func TestSubscribePublish(t *testing.T) {
	b := New(10)
	var got []Event
	b.Subscribe(EventParticipantDone, func(ev Event) {
		got = append(got, ev)
	})

	b.Publish(Event{Type: EventParticipantDone, Participant: "A"})
	b.Publish(Event{Type: EventTurnSettled})

	if len(got) != 1 {
		t.Fatalf("expected 1 delivered event, got %d", len(got))
	}
	if got[0].Participant != "A" {
		t.Fatalf("wrong event: %+v", got[0])
	}
	if got[0].Time.IsZero() {
		t.Fatal("Publish should stamp the event time")
	}
}

func TestSubscribeAll(t *testing.T) {
	b := New(10)
	var count int
	b.SubscribeAll(func(ev Event) { count++ })

	b.Publish(Event{Type: EventTurnStarted})
	b.Publish(Event{Type: EventChairmanStarted})
	b.Publish(Event{Type: EventTurnSettled})

	if count != 3 {
		t.Fatalf("wildcard handler saw %d events, want 3", count)
	}
}

func TestHandlerPanicDoesNotPropagate(t *testing.T) {
	b := New(10)
	b.Subscribe(EventSystemError, func(ev Event) { panic("boom") })

	var delivered bool
	b.Subscribe(EventSystemError, func(ev Event) { delivered = true })

	b.Publish(Event{Type: EventSystemError})
	if !delivered {
		t.Fatal("panic in one handler starved the next")
	}
}

func TestHistoryBounded(t *testing.T) {
	b := New(3)
	for i := 0; i < 5; i++ {
		b.Publish(Event{Type: EventParticipantDone, Detail: string(rune('a' + i))})
	}
	hist := b.History(0)
	if len(hist) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(hist))
	}
	if hist[0].Detail != "c" || hist[2].Detail != "e" {
		t.Fatalf("expected the 3 newest events, got %+v", hist)
	}
	if got := b.History(2); len(got) != 2 || got[1].Detail != "e" {
		t.Fatalf("History(2) = %+v", got)
	}
}

func TestConcurrentPublish(t *testing.T) {
	b := New(100)
	var mu sync.Mutex
	count := 0
	b.SubscribeAll(func(ev Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				b.Publish(Event{Type: EventParticipantDone})
			}
		}()
	}
	wg.Wait()

	if count != 200 {
		t.Fatalf("expected 200 deliveries, got %d", count)
	}
}
