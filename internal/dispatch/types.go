package dispatch

import "time"

// Status is a command's lifecycle state.
type Status string

// Command lifecycle states.
const (
	// StatusPending means the command has been recorded but not yet sent.
	StatusPending Status = "pending"

	// StatusSent means the transport accepted the command.
	StatusSent Status = "sent"

	// StatusFailed means the transport send failed.
	StatusFailed Status = "failed"

	// StatusCancelled means the caller's context was cancelled before
	// the command was handed to the transport.
	StatusCancelled Status = "cancelled"
)

// Command is one dispatched device command and its outcome.
type Command struct {
	ID        string         `json:"id"`
	DeviceID  string         `json:"device_id"`
	Channel   string         `json:"channel,omitempty"`
	Action    string         `json:"action"`
	Params    map[string]any `json:"params,omitempty"`
	Status    Status         `json:"status"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// DeepCopy returns a copy of the command with its own params map.
func (c *Command) DeepCopy() *Command {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Params != nil {
		clone.Params = make(map[string]any, len(c.Params))
		for k, v := range c.Params {
			clone.Params[k] = v
		}
	}
	return &clone
}
