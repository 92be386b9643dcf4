package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetforge/fleet-hub/internal/device"
	"github.com/fleetforge/fleet-hub/internal/dispatch"
	"github.com/fleetforge/fleet-hub/internal/sensor"
)

// handleListDevices returns every known device.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.hub.ListDevices()
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.hub.GetDeviceStatus(id)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleGetDeviceZone returns the zone a device belongs to.
// Unassigned devices resolve to the default zone, never to a 404.
func (s *Server) handleGetDeviceZone(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]string{
		"device_id": id,
		"zone":      s.hub.GetZoneForDevice(id),
	})
}

// zoneAssignRequest is the request body for PUT /devices/{id}/zone.
type zoneAssignRequest struct {
	Zone string `json:"zone"`
}

// handleSetDeviceZone assigns a device to a zone.
func (s *Server) handleSetDeviceZone(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req zoneAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.hub.SetZoneForDevice(id, req.Zone); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"device_id": id,
		"zone":      req.Zone,
	})
}

// handleDeviceSensorStats returns aggregated stats for every sensor channel
// of a device.
func (s *Server) handleDeviceSensorStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	stats, err := s.hub.GetSensorAggregation(id)
	if err != nil {
		if errors.Is(err, sensor.ErrNotFound) {
			writeNotFound(w, "no sensor data for device")
			return
		}
		writeInternalError(w, "failed to aggregate sensors")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"device_id": id, "channels": stats})
}

// handleGetSensorValue returns the latest reading for a device channel.
func (s *Server) handleGetSensorValue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	channel := chi.URLParam(r, "channel")

	reading, err := s.hub.GetSensorValue(id, channel)
	if err != nil {
		if errors.Is(err, sensor.ErrNotFound) {
			writeNotFound(w, "no reading for channel")
			return
		}
		writeInternalError(w, "failed to read sensor")
		return
	}

	writeJSON(w, http.StatusOK, reading)
}

// handleGetSensorHistory returns the rolling reading history for a channel.
func (s *Server) handleGetSensorHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	channel := chi.URLParam(r, "channel")

	readings, err := s.sensors.History(id, channel)
	if err != nil {
		if errors.Is(err, sensor.ErrNotFound) {
			writeNotFound(w, "no reading for channel")
			return
		}
		writeInternalError(w, "failed to read sensor history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"channel":   channel,
		"readings":  readings,
		"count":     len(readings),
	})
}

// registerSensorRequest is the request body for POST /devices/{id}/sensors.
type registerSensorRequest struct {
	Channel string `json:"channel"`
	Unit    string `json:"unit"`
}

// handleRegisterSensor declares a sensor channel and unit for a device.
func (s *Server) handleRegisterSensor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req registerSensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.hub.RegisterSensor(id, req.Channel, req.Unit); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"device_id": id,
		"channel":   req.Channel,
		"unit":      req.Unit,
	})
}

// handleGetActuatorState reports whether a channel's schedule makes it
// active right now.
func (s *Server) handleGetActuatorState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	channel := chi.URLParam(r, "channel")

	active, err := s.hub.GetActuatorState(id, channel)
	if err != nil {
		writeNotFound(w, "no rule for channel")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"channel":   channel,
		"active":    active,
	})
}

// handleRestartDevice dispatches a restart command to a device.
func (s *Server) handleRestartDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cmd, err := s.hub.RestartDevice(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, device.ErrNotFound):
			writeNotFound(w, "device not found")
		case errors.Is(err, dispatch.ErrSendFailed):
			writeError(w, http.StatusBadGateway, ErrCodeInternal, "device did not accept the command")
		default:
			writeInternalError(w, "failed to restart device")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, cmd)
}

// handleListZones returns every known zone.
func (s *Server) handleListZones(w http.ResponseWriter, _ *http.Request) {
	zones := s.zones.Zones()
	writeJSON(w, http.StatusOK, map[string]any{"zones": zones, "count": len(zones)})
}

// handleZoneDevices returns the devices assigned to a zone.
func (s *Server) handleZoneDevices(w http.ResponseWriter, r *http.Request) {
	zoneName := chi.URLParam(r, "zone")
	devices := s.zones.DevicesInZone(zoneName)
	writeJSON(w, http.StatusOK, map[string]any{
		"zone":    zoneName,
		"devices": devices,
		"count":   len(devices),
	})
}
