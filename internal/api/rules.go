package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetforge/fleet-hub/internal/actuator"
)

// handleListRules returns every actuator schedule rule.
func (s *Server) handleListRules(w http.ResponseWriter, _ *http.Request) {
	rules := s.actuators.List()
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules, "count": len(rules)})
}

// handleCreateRule creates a new actuator schedule rule.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule actuator.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.actuators.Create(rule); err != nil {
		switch {
		case errors.Is(err, actuator.ErrRuleExists):
			writeConflict(w, "rule already exists for channel")
		case errors.Is(err, actuator.ErrInvalidRule):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to create rule")
		}
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

// handleUpdateRule replaces an existing rule's windows.
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var rule actuator.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	// The URL is authoritative for the key.
	rule.DeviceID = chi.URLParam(r, "deviceID")
	rule.Channel = chi.URLParam(r, "channel")

	if err := s.actuators.Update(rule); err != nil {
		switch {
		case errors.Is(err, actuator.ErrNotFound):
			writeNotFound(w, "rule not found")
		case errors.Is(err, actuator.ErrInvalidRule):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to update rule")
		}
		return
	}

	writeJSON(w, http.StatusOK, rule)
}

// ruleEnabledRequest is the request body for PUT /rules/{deviceID}/{channel}/enabled.
type ruleEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// handleSetRuleEnabled toggles a rule without touching its windows.
func (s *Server) handleSetRuleEnabled(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	channel := chi.URLParam(r, "channel")

	var req ruleEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.actuators.SetEnabled(deviceID, channel, req.Enabled); err != nil {
		if errors.Is(err, actuator.ErrNotFound) {
			writeNotFound(w, "rule not found")
			return
		}
		writeInternalError(w, "failed to update rule")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": deviceID,
		"channel":   channel,
		"enabled":   req.Enabled,
	})
}

// handleDeleteRule removes a rule.
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	channel := chi.URLParam(r, "channel")

	if err := s.actuators.Delete(deviceID, channel); err != nil {
		if errors.Is(err, actuator.ErrNotFound) {
			writeNotFound(w, "rule not found")
			return
		}
		writeInternalError(w, "failed to delete rule")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
