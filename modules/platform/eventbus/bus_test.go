package eventbus

import (
	"testing"
)

func TestPublishDeliversInOrder(t *testing.T) {
	bus := NewBus()

	var seen []EventType
	bus.Subscribe(nil, func(e *Event) {
		seen = append(seen, e.Type)
	})

	bus.Publish(NewEvent(EventMetricsUpdated))
	bus.Publish(NewEvent(EventWorldUpdated))
	bus.Publish(NewEvent(EventLogUpdated))

	want := []EventType{EventMetricsUpdated, EventWorldUpdated, EventLogUpdated}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestSubscribeFiltersByType(t *testing.T) {
	bus := NewBus()

	var metrics, all int
	bus.Subscribe([]EventType{EventMetricsUpdated}, func(*Event) { metrics++ })
	bus.Subscribe(nil, func(*Event) { all++ })

	bus.Publish(NewEvent(EventMetricsUpdated))
	bus.Publish(NewEvent(EventStatusUpdated))

	if metrics != 1 {
		t.Errorf("filtered subscriber saw %d events, want 1", metrics)
	}
	if all != 2 {
		t.Errorf("catch-all subscriber saw %d events, want 2", all)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	var count int
	id := bus.Subscribe(nil, func(*Event) { count++ })

	bus.Publish(NewEvent(EventStatusUpdated))
	bus.Unsubscribe(id)
	bus.Publish(NewEvent(EventStatusUpdated))

	if count != 1 {
		t.Errorf("count = %d, want 1 after unsubscribe", count)
	}
}

func TestHistoryKeepsRecentEvents(t *testing.T) {
	bus := NewBus()

	bus.Publish(NewEvent(EventMetricsUpdated).WithSource("a"))
	bus.Publish(NewEvent(EventWorldUpdated).WithSource("b"))
	bus.Publish(NewEvent(EventLogUpdated).WithSource("c"))

	recent := bus.GetHistory(2)
	if len(recent) != 2 {
		t.Fatalf("len(recent) = %d, want 2", len(recent))
	}
	if recent[0].Source != "b" || recent[1].Source != "c" {
		t.Errorf("recent = [%s %s], want the two newest events", recent[0].Source, recent[1].Source)
	}
}
