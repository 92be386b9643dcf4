package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fleetforge/fleet-hub/internal/identity"
	"github.com/fleetforge/fleet-hub/internal/prefs"
)

// defaultHistoryLimit is the event count returned when no limit is given.
const defaultHistoryLimit = 100

// handleGetIdentity returns the current hub identity and its provenance.
func (s *Server) handleGetIdentity(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.identity.Current())
}

// identityRequest is the request body for PUT /system/identity.
// A null or empty value clears the manual assignment.
type identityRequest struct {
	Value string `json:"value"`
}

// handleSetIdentity sets or clears the manual identity assignment.
func (s *Server) handleSetIdentity(w http.ResponseWriter, r *http.Request) {
	var req identityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	var (
		record identity.Record
		err    error
	)
	if req.Value == "" {
		record, err = s.identity.ClearManual(r.Context())
	} else {
		record, err = s.identity.SetManual(r.Context(), req.Value)
	}
	if err != nil {
		if errors.Is(err, identity.ErrInvalidIdentity) {
			writeBadRequest(w, err.Error())
			return
		}
		writeInternalError(w, "failed to update identity")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleGetSettings returns the hub settings.
func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Settings())
}

// handleUpdateSettings applies a sparse settings update.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var partial identity.SettingsPartial
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	updated, err := s.hub.UpdateConfig(r.Context(), partial)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidSettings) {
			writeBadRequest(w, err.Error())
			return
		}
		writeInternalError(w, "failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// handleGetPrefs returns the UI preferences.
func (s *Server) handleGetPrefs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Prefs())
}

// handleUpdatePrefs applies a sparse preferences update.
func (s *Server) handleUpdatePrefs(w http.ResponseWriter, r *http.Request) {
	var partial prefs.Partial
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	updated, err := s.hub.UpdatePrefs(r.Context(), partial)
	if err != nil {
		if errors.Is(err, prefs.ErrInvalidPreference) {
			writeBadRequest(w, err.Error())
			return
		}
		writeInternalError(w, "failed to update preferences")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// handleHistory returns recent fleet events, newest first.
//
// Query parameters:
//   - limit: maximum number of events to return (default 100)
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events := s.history.Recent(limit)
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}
