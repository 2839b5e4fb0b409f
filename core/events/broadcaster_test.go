package events

import "testing"

type captureEmitter struct {
	events []Event
}

func (c *captureEmitter) Emit(evt Event) { c.events = append(c.events, evt) }

func TestBroadcasterDeliversToSubscribers(t *testing.T) {
	b := NewBroadcaster(2)
	first, cancelFirst := b.Subscribe()
	second, cancelSecond := b.Subscribe()
	defer cancelSecond()

	b.Emit(&Record{Type: "royalty.listing.created"})

	for _, ch := range []<-chan Event{first, second} {
		evt := <-ch
		if evt.EventType() != "royalty.listing.created" {
			t.Fatalf("unexpected event type %q", evt.EventType())
		}
	}

	cancelFirst()
	cancelFirst()
	if got := b.Subscribers(); got != 1 {
		t.Fatalf("expected 1 subscriber after cancel, got %d", got)
	}
	if _, ok := <-first; ok {
		t.Fatalf("expected cancelled channel to be closed")
	}
}

func TestBroadcasterDropsWhenSubscriberIsFull(t *testing.T) {
	b := NewBroadcaster(1)
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Emit(&Record{Type: "a"})
	b.Emit(&Record{Type: "b"})

	if evt := <-ch; evt.EventType() != "a" {
		t.Fatalf("expected first event to be retained, got %q", evt.EventType())
	}
	select {
	case evt := <-ch:
		t.Fatalf("expected overflow event to be dropped, got %q", evt.EventType())
	default:
	}
}

func TestMultiEmitterFansOut(t *testing.T) {
	a, b := &captureEmitter{}, &captureEmitter{}
	multi := MultiEmitter{a, nil, b}
	multi.Emit(&Record{Type: "x"})
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("expected both emitters to receive the event")
	}
}
