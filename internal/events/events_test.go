package events

import (
	"testing"
	"time"
)

func TestSubscribeReceivesMatchingType(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventUploadCompleted)

	bus.Publish(NewUploadEvent(EventUploadProgress, "r1", "a.txt", 10, 50))
	bus.Publish(NewUploadEvent(EventUploadCompleted, "r1", "a.txt", 10, 100))

	select {
	case ev := <-ch:
		if ev.Type() != EventUploadCompleted {
			t.Errorf("received %s, want %s", ev.Type(), EventUploadCompleted)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case ev := <-ch:
		t.Errorf("unexpected extra event: %s", ev.Type())
	default:
	}
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.SubscribeAll()

	bus.Publish(NewTreeEvent(EventTreeNodeLoading, "n1", "docs", nil))
	bus.Publish(NewUploadEvent(EventUploadStarted, "r1", "a.txt", 10, 0))

	for i := 0; i < 2; i++ {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestPublishNeverBlocksOnFullBuffer(t *testing.T) {
	bus := NewEventBus(1)
	defer bus.Close()

	bus.Subscribe(EventUploadProgress)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(NewUploadEvent(EventUploadProgress, "r1", "a.txt", 10, i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer")
	}

	if bus.DroppedEventCount() == 0 {
		t.Error("expected dropped events with a full buffer")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventSessionExpired)
	bus.Unsubscribe(EventSessionExpired, ch)

	bus.Publish(&SessionEvent{BaseEvent: BaseEvent{EventType: EventSessionExpired, Time: time.Now()}})

	select {
	case ev := <-ch:
		t.Errorf("received event after unsubscribe: %v", ev.Type())
	default:
	}
}

func TestPublishAfterCloseIsSafe(t *testing.T) {
	bus := NewEventBus(10)
	bus.Close()
	bus.Publish(NewTreeEvent(EventTreeNodeExpanded, "n1", "docs", nil))
	bus.Close()
}
