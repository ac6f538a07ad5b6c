package jobs

import "testing"

// TestEventBusSince verifies incremental event reads by sequence.
func TestEventBusSince(t *testing.T) {
	bus := NewEventBus(3)
	bus.Publish(Event{Type: EventTypeProgress, Percent: 10})
	bus.Publish(Event{Type: EventTypeProgress, Percent: 20})
	bus.Publish(Event{Type: EventTypeProgress, Percent: 30})

	events := bus.Since(1)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Seq != 2 || events[1].Seq != 3 {
		t.Fatalf("unexpected seqs: %+v", events)
	}
}

// TestEventBusCapsHistory verifies buffer limit trimming behavior.
func TestEventBusCapsHistory(t *testing.T) {
	bus := NewEventBus(2)
	bus.Publish(Event{Message: "1"})
	bus.Publish(Event{Message: "2"})
	bus.Publish(Event{Message: "3"})

	events := bus.Since(0)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Message != "2" || events[1].Message != "3" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

// TestEventBusStampsTimestamps verifies publish fills missing timestamps.
func TestEventBusStampsTimestamps(t *testing.T) {
	bus := NewEventBus(10)
	event := bus.Publish(Event{Type: EventTypeStatus})
	if event.Timestamp.IsZero() {
		t.Fatal("publish should stamp a timestamp")
	}
	if event.Seq != 1 {
		t.Fatalf("seq = %d, want 1", event.Seq)
	}
}
