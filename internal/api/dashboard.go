package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetforge/fleet-hub/internal/dashboard"
)

// handleListTiles returns the dashboard layout in display order.
func (s *Server) handleListTiles(w http.ResponseWriter, _ *http.Request) {
	tiles := s.dashboard.Tiles()
	writeJSON(w, http.StatusOK, map[string]any{"tiles": tiles, "count": len(tiles)})
}

// handleAddTile adds a tile to the dashboard.
func (s *Server) handleAddTile(w http.ResponseWriter, r *http.Request) {
	var tile dashboard.Tile
	if err := json.NewDecoder(r.Body).Decode(&tile); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.dashboard.AddTile(r.Context(), tile); err != nil {
		switch {
		case errors.Is(err, dashboard.ErrTileExists):
			writeConflict(w, "tile already exists")
		case errors.Is(err, dashboard.ErrInvalidTile):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to add tile")
		}
		return
	}

	writeJSON(w, http.StatusCreated, tile)
}

// handleUpdateTile replaces an existing tile.
func (s *Server) handleUpdateTile(w http.ResponseWriter, r *http.Request) {
	var tile dashboard.Tile
	if err := json.NewDecoder(r.Body).Decode(&tile); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	tile.ID = chi.URLParam(r, "id")

	if err := s.dashboard.UpdateTile(r.Context(), tile); err != nil {
		switch {
		case errors.Is(err, dashboard.ErrNotFound):
			writeNotFound(w, "tile not found")
		case errors.Is(err, dashboard.ErrInvalidTile):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to update tile")
		}
		return
	}

	writeJSON(w, http.StatusOK, tile)
}

// handleRemoveTile removes a tile from the dashboard.
func (s *Server) handleRemoveTile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.dashboard.RemoveTile(r.Context(), id); err != nil {
		if errors.Is(err, dashboard.ErrNotFound) {
			writeNotFound(w, "tile not found")
			return
		}
		writeInternalError(w, "failed to remove tile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
