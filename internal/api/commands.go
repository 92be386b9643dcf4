package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fleetforge/fleet-hub/internal/dispatch"
	"github.com/fleetforge/fleet-hub/internal/hub"
)

// defaultRecentCommands is the command count returned when no limit is given.
const defaultRecentCommands = 50

// dispatchRequest is the request body for POST /commands.
type dispatchRequest struct {
	DeviceID string         `json:"device_id"`
	Channel  string         `json:"channel,omitempty"`
	Action   string         `json:"action"`
	Params   map[string]any `json:"params,omitempty"`
}

// handleDispatchCommand sends a command to a device and waits for the
// synchronous settle.
func (s *Server) handleDispatchCommand(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	cmd, err := s.dispatch.Dispatch(r.Context(), req.DeviceID, req.Channel, req.Action, req.Params)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrInvalidCommand):
			writeBadRequest(w, err.Error())
		case errors.Is(err, dispatch.ErrSendFailed):
			// The record still carries the failure detail.
			writeJSON(w, http.StatusBadGateway, cmd)
		default:
			writeInternalError(w, "failed to dispatch command")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, cmd)
}

// handleRecentCommands returns recent commands, newest first.
//
// Query parameters:
//   - limit: maximum number of commands to return (default 50)
func (s *Server) handleRecentCommands(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentCommands
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	commands := s.dispatch.Recent(limit)
	writeJSON(w, http.StatusOK, map[string]any{"commands": commands, "count": len(commands)})
}

// handleGetCommand returns one command record by ID.
func (s *Server) handleGetCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cmd, err := s.dispatch.Get(id)
	if err != nil {
		writeNotFound(w, "command not found")
		return
	}

	writeJSON(w, http.StatusOK, cmd)
}

// handleEmergencyStop stops every actuator channel in the fleet.
//
// A fully reachable fleet returns 200. If some devices could not be
// reached the response is 207 Multi-Status naming exactly those devices;
// every other device was confirmed stopped.
func (s *Server) handleEmergencyStop(w http.ResponseWriter, r *http.Request) {
	err := s.hub.EmergencyStopAll(r.Context())
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]any{"stopped": true})
		return
	}

	var partial *hub.PartialFailureError
	if errors.As(err, &partial) {
		writeJSON(w, http.StatusMultiStatus, map[string]any{
			"stopped":        true,
			"failed_devices": partial.FailedDevices,
		})
		return
	}

	writeInternalError(w, "emergency stop failed")
}
