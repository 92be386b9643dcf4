package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/events"
)

// respondWith wires a fake session onto the bus that answers every
// command request with the given error string.
func respondWith(bus *eventbus.Bus, errMsg string) *[]events.CommandRequest {
	var requests []events.CommandRequest
	bus.Subscribe(events.TypeCommandRequest, func(ev eventbus.Event) {
		req := ev.Payload.(events.CommandRequest)
		requests = append(requests, req)
		bus.Publish(eventbus.Event{
			Type: events.TypeCommandResult,
			Payload: events.CommandResult{
				CommandID: req.CommandID,
				DeviceID:  req.DeviceID,
				Error:     errMsg,
			},
		})
	})
	return &requests
}

func TestDispatch_SuccessfulRoundTrip(t *testing.T) {
	bus := eventbus.New()
	d := New(bus, 0)
	requests := respondWith(bus, "")

	cmd, err := d.Dispatch(context.Background(), "esp-1", "pump", "stop", nil)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if cmd.Status != StatusSent {
		t.Errorf("Status = %q, want %q", cmd.Status, StatusSent)
	}
	if cmd.ID == "" {
		t.Error("command has no ID")
	}
	if len(*requests) != 1 || (*requests)[0].CommandID != cmd.ID {
		t.Errorf("requests = %+v", *requests)
	}

	stored, err := d.Get(cmd.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Status != StatusSent {
		t.Errorf("stored Status = %q, want %q", stored.Status, StatusSent)
	}
}

func TestDispatch_TransportFailure(t *testing.T) {
	bus := eventbus.New()
	d := New(bus, 0)
	respondWith(bus, "session: transport not connected")

	cmd, err := d.Dispatch(context.Background(), "esp-1", "pump", "stop", nil)
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("Dispatch() error = %v, want ErrSendFailed", err)
	}
	if cmd.Status != StatusFailed || cmd.Error == "" {
		t.Errorf("command = %+v, want failed with error", cmd)
	}
}

func TestDispatch_ValidatesInput(t *testing.T) {
	d := New(eventbus.New(), 0)

	if _, err := d.Dispatch(context.Background(), "", "", "stop", nil); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("Dispatch(no device) error = %v, want ErrInvalidCommand", err)
	}
	if _, err := d.Dispatch(context.Background(), "esp-1", "", "", nil); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("Dispatch(no action) error = %v, want ErrInvalidCommand", err)
	}
}

func TestDispatch_CancelledContextPublishesNothing(t *testing.T) {
	bus := eventbus.New()
	d := New(bus, 0)
	requests := respondWith(bus, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd, err := d.Dispatch(ctx, "esp-1", "pump", "stop", nil)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Dispatch() error = %v, want ErrCancelled", err)
	}
	if cmd.Status != StatusCancelled {
		t.Errorf("Status = %q, want %q", cmd.Status, StatusCancelled)
	}
	if len(*requests) != 0 {
		t.Errorf("cancelled dispatch published %d requests", len(*requests))
	}
}

func TestDispatch_UnknownResultIgnored(t *testing.T) {
	bus := eventbus.New()
	New(bus, 0)

	// Must not panic or create records.
	bus.Publish(eventbus.Event{
		Type:    events.TypeCommandResult,
		Payload: events.CommandResult{CommandID: "ghost", DeviceID: "esp-1"},
	})
}

func TestDispatch_HistoryIsBounded(t *testing.T) {
	bus := eventbus.New()
	d := New(bus, 2)
	respondWith(bus, "")

	var ids []string
	for i := 0; i < 3; i++ {
		cmd, err := d.Dispatch(context.Background(), "esp-1", "pump", "stop", nil)
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		ids = append(ids, cmd.ID)
	}

	if _, err := d.Get(ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("oldest command still present: %v", err)
	}

	recent := d.Recent(10)
	if len(recent) != 2 {
		t.Fatalf("Recent() len = %d, want 2", len(recent))
	}
	// Newest first.
	if recent[0].ID != ids[2] || recent[1].ID != ids[1] {
		t.Errorf("Recent() order = [%s %s], want [%s %s]", recent[0].ID, recent[1].ID, ids[2], ids[1])
	}
}

func TestDispatch_HistoryPressureDuringRoundTrip(t *testing.T) {
	bus := eventbus.New()
	d := New(bus, 1)

	// The responder dispatches a second command before answering the
	// first, so the ring is over depth while the first is still in
	// flight. The in-flight record must survive until its result lands.
	nested := false
	bus.Subscribe(events.TypeCommandRequest, func(ev eventbus.Event) {
		req := ev.Payload.(events.CommandRequest)
		if !nested {
			nested = true
			if _, err := d.Dispatch(context.Background(), "esp-2", "", "stop", nil); err != nil {
				t.Errorf("nested Dispatch() error = %v", err)
			}
		}
		bus.Publish(eventbus.Event{
			Type:    events.TypeCommandResult,
			Payload: events.CommandResult{CommandID: req.CommandID, DeviceID: req.DeviceID},
		})
	})

	cmd, err := d.Dispatch(context.Background(), "esp-1", "pump", "stop", nil)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if cmd.Status != StatusSent {
		t.Errorf("Status = %q, want %q", cmd.Status, StatusSent)
	}
}

func TestDispatch_SnapshotOfEvictedCommand(t *testing.T) {
	d := New(eventbus.New(), 0)

	// A record no longer in the ring snapshots from the caller's copy.
	cmd := &Command{ID: "evicted", DeviceID: "esp-1", Action: "stop", Status: StatusSent}
	got := d.snapshot(cmd)
	if got == nil || got.ID != "evicted" || got.Status != StatusSent {
		t.Errorf("snapshot() = %+v, want copy of the evicted record", got)
	}
	if got == cmd {
		t.Error("snapshot() returned the original, not a copy")
	}
}

func TestDispatch_GetUnknown(t *testing.T) {
	d := New(eventbus.New(), 0)

	if _, err := d.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}
