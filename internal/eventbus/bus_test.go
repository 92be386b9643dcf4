package eventbus

import (
	"sync"
	"testing"
)

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	bus := New()

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		bus.Subscribe("test.event", func(Event) {
			order = append(order, i)
		})
	}

	bus.Publish(Event{Type: "test.event"})

	if len(order) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(order))
	}
	for i, got := range order {
		if got != i+1 {
			t.Errorf("delivery %d: expected handler %d, got %d", i, i+1, got)
		}
	}
}

func TestPublishIgnoresOtherEventTypes(t *testing.T) {
	bus := New()

	called := false
	bus.Subscribe("wanted", func(Event) { called = true })

	bus.Publish(Event{Type: "unwanted"})

	if called {
		t.Error("handler for 'wanted' invoked for 'unwanted' event")
	}
}

func TestSubscriberAddedDuringFanOutNotInvoked(t *testing.T) {
	bus := New()

	lateInvoked := false
	bus.Subscribe("test.event", func(Event) {
		bus.Subscribe("test.event", func(Event) {
			lateInvoked = true
		})
	})

	bus.Publish(Event{Type: "test.event"})

	if lateInvoked {
		t.Error("handler subscribed during fan-out was invoked for the same publish")
	}

	// It must receive the next publish.
	bus.Publish(Event{Type: "test.event"})
	if !lateInvoked {
		t.Error("late handler not invoked on subsequent publish")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	bus := New()

	count := 0
	sub := bus.Subscribe("test.event", func(Event) { count++ })

	bus.Unsubscribe(sub)
	bus.Unsubscribe(sub) // second call must be a no-op
	bus.Unsubscribe(nil) // nil handle must be safe

	bus.Publish(Event{Type: "test.event"})

	if count != 0 {
		t.Errorf("expected no deliveries after unsubscribe, got %d", count)
	}
	if got := bus.SubscriberCount("test.event"); got != 0 {
		t.Errorf("expected 0 subscribers, got %d", got)
	}
}

func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	bus := New()
	logger := &captureLogger{}
	bus.SetLogger(logger)

	secondCalled := false
	bus.Subscribe("test.event", func(Event) { panic("boom") })
	bus.Subscribe("test.event", func(Event) { secondCalled = true })

	bus.Publish(Event{Type: "test.event"})

	if !secondCalled {
		t.Error("handler after panicking handler was not invoked")
	}
	if logger.errorCount() != 1 {
		t.Errorf("expected 1 logged panic, got %d", logger.errorCount())
	}
}

func TestSubscribeAllReceivesEveryType(t *testing.T) {
	bus := New()

	var seen []string
	sub := bus.SubscribeAll(func(e Event) { seen = append(seen, e.Type) })

	bus.Publish(Event{Type: "a"})
	bus.Publish(Event{Type: "b"})

	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("expected [a b], got %v", seen)
	}

	bus.Unsubscribe(sub)
	bus.Publish(Event{Type: "c"})
	if len(seen) != 2 {
		t.Error("all-subscriber still invoked after unsubscribe")
	}
}

func TestAllSubscribersRunAfterTypedSubscribers(t *testing.T) {
	bus := New()

	var order []string
	bus.SubscribeAll(func(Event) { order = append(order, "all") })
	bus.Subscribe("test.event", func(Event) { order = append(order, "typed") })

	bus.Publish(Event{Type: "test.event"})

	if len(order) != 2 || order[0] != "typed" || order[1] != "all" {
		t.Fatalf("expected [typed all], got %v", order)
	}
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := New()

	var mu sync.Mutex
	count := 0
	bus.Subscribe("test.event", func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Publish(Event{Type: "test.event"})
		}()
		go func() {
			defer wg.Done()
			sub := bus.Subscribe("other", func(Event) {})
			bus.Unsubscribe(sub)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if count != 10 {
		t.Errorf("expected 10 deliveries, got %d", count)
	}
}

// captureLogger records Error calls for assertions.
type captureLogger struct {
	mu     sync.Mutex
	errors int
}

func (l *captureLogger) Error(string, ...any) {
	l.mu.Lock()
	l.errors++
	l.mu.Unlock()
}

func (l *captureLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errors
}
