package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/events"
)

// DefaultHistorySize is how many settled commands the dispatcher retains.
const DefaultHistorySize = 100

// Logger defines the logging interface used by the Dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Dispatcher owns command records and the request/result round-trip.
//
// Dispatch publishes events.CommandRequest; the session container sends
// the command over the transport inside the same synchronous fan-out and
// replies with events.CommandResult, which the dispatcher consumes to
// settle the record before Dispatch returns.
//
// All public methods are thread-safe.
type Dispatcher struct {
	mu          sync.RWMutex
	commands    map[string]*Command
	order       []string // command IDs, oldest first
	historySize int
	bus         *eventbus.Bus
	logger      Logger
}

// New creates a dispatcher with the given history depth
// (DefaultHistorySize if zero or negative) and attaches its result
// subscription to the bus.
func New(bus *eventbus.Bus, historySize int) *Dispatcher {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	d := &Dispatcher{
		commands:    make(map[string]*Command),
		historySize: historySize,
		bus:         bus,
		logger:      noopLogger{},
	}

	bus.Subscribe(events.TypeCommandResult, d.onCommandResult)

	return d
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Dispatch sends a command to a device and returns the settled record.
//
// The ctx is honoured up to the point of sending: a context cancelled
// before the request is published yields ErrCancelled and no events are
// ever published for the command. Once the request is on the bus the
// round-trip is synchronous and runs to completion.
func (d *Dispatcher) Dispatch(ctx context.Context, deviceID, channel, action string, params map[string]any) (*Command, error) {
	if deviceID == "" || action == "" {
		return nil, fmt.Errorf("%w: device id and action are required", ErrInvalidCommand)
	}

	cmd := &Command{
		ID:        uuid.New().String(),
		DeviceID:  deviceID,
		Channel:   channel,
		Action:    action,
		Params:    params,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	d.mu.Lock()
	d.commands[cmd.ID] = cmd
	d.order = append(d.order, cmd.ID)
	d.trimLocked()
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		d.settle(cmd.ID, StatusCancelled, err.Error())
		return d.snapshot(cmd), fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	// Session sends and replies with a CommandResult inside this Publish;
	// the record is settled by the time Publish returns.
	d.bus.Publish(eventbus.Event{
		Type: events.TypeCommandRequest,
		Payload: events.CommandRequest{
			CommandID: cmd.ID,
			DeviceID:  deviceID,
			Channel:   channel,
			Action:    action,
			Params:    params,
		},
	})

	settled := d.snapshot(cmd)
	if settled.Status == StatusFailed {
		return settled, fmt.Errorf("%w: %s", ErrSendFailed, settled.Error)
	}
	return settled, nil
}

// Get retrieves a command record by ID.
func (d *Dispatcher) Get(id string) (*Command, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cmd, ok := d.commands[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cmd.DeepCopy(), nil
}

// Recent returns up to n command records, newest first.
func (d *Dispatcher) Recent(n int) []Command {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if n <= 0 || n > len(d.order) {
		n = len(d.order)
	}
	out := make([]Command, 0, n)
	for i := len(d.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, *d.commands[d.order[i]].DeepCopy())
	}
	return out
}

// onCommandResult settles the matching record. Results for unknown (or
// already-evicted) command IDs are ignored.
func (d *Dispatcher) onCommandResult(ev eventbus.Event) {
	result, ok := ev.Payload.(events.CommandResult)
	if !ok {
		return
	}

	if result.Error != "" {
		d.settle(result.CommandID, StatusFailed, result.Error)
	} else {
		d.settle(result.CommandID, StatusSent, "")
	}
}

func (d *Dispatcher) settle(id string, status Status, errMsg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cmd, ok := d.commands[id]
	if !ok || cmd.Status != StatusPending {
		return
	}
	cmd.Status = status
	cmd.Error = errMsg
}

// snapshot returns a copy of the current record for cmd. Commands
// settled under history pressure may already be evicted from the map;
// cmd itself is then the only remaining record, so copy it under the
// lock.
func (d *Dispatcher) snapshot(cmd *Command) *Command {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if current, ok := d.commands[cmd.ID]; ok {
		return current.DeepCopy()
	}
	return cmd.DeepCopy()
}

// trimLocked evicts the oldest settled records beyond the history
// depth. In-flight records are never evicted: a result must settle the
// record the caller is waiting on. Caller holds the write lock.
func (d *Dispatcher) trimLocked() {
	for len(d.order) > d.historySize {
		oldest, ok := d.commands[d.order[0]]
		if ok && oldest.Status == StatusPending {
			return
		}
		delete(d.commands, d.order[0])
		d.order = d.order[1:]
	}
}
