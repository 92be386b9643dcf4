package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// WS ticket requires authentication - user must be logged in to request a ticket
			r.Post("/auth/ws-ticket", s.handleWSTicket)
			r.Get("/auth/me", s.handleMe)

			// Device endpoints
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Get("/zone", s.handleGetDeviceZone)
					r.Get("/sensors", s.handleDeviceSensorStats)
					r.Get("/sensors/{channel}", s.handleGetSensorValue)
					r.Get("/sensors/{channel}/history", s.handleGetSensorHistory)
					r.Get("/actuators/{channel}", s.handleGetActuatorState)

					// Writes require admin
					r.Group(func(r chi.Router) {
						r.Use(s.adminMiddleware)
						r.Put("/zone", s.handleSetDeviceZone)
						r.Post("/sensors", s.handleRegisterSensor)
						r.Post("/restart", s.handleRestartDevice)
					})
				})
			})

			// Actuator schedule rules
			r.Route("/rules", func(r chi.Router) {
				r.Get("/", s.handleListRules)

				r.Group(func(r chi.Router) {
					r.Use(s.adminMiddleware)
					r.Post("/", s.handleCreateRule)
					r.Put("/{deviceID}/{channel}", s.handleUpdateRule)
					r.Put("/{deviceID}/{channel}/enabled", s.handleSetRuleEnabled)
					r.Delete("/{deviceID}/{channel}", s.handleDeleteRule)
				})
			})

			// Command dispatch and history
			r.Route("/commands", func(r chi.Router) {
				r.Get("/", s.handleRecentCommands)
				r.Get("/{id}", s.handleGetCommand)

				r.Group(func(r chi.Router) {
					r.Use(s.adminMiddleware)
					r.Post("/", s.handleDispatchCommand)
				})
			})
			r.With(s.adminMiddleware).Post("/emergency-stop", s.handleEmergencyStop)

			// Dashboard layout
			r.Route("/dashboard/tiles", func(r chi.Router) {
				r.Get("/", s.handleListTiles)

				r.Group(func(r chi.Router) {
					r.Use(s.adminMiddleware)
					r.Post("/", s.handleAddTile)
					r.Put("/{id}", s.handleUpdateTile)
					r.Delete("/{id}", s.handleRemoveTile)
				})
			})

			// Zones
			r.Route("/zones", func(r chi.Router) {
				r.Get("/", s.handleListZones)
				r.Get("/{zone}/devices", s.handleZoneDevices)
			})

			// UI preferences
			r.Get("/prefs", s.handleGetPrefs)
			r.Patch("/prefs", s.handleUpdatePrefs)

			// System identity and settings
			r.Route("/system", func(r chi.Router) {
				r.Get("/identity", s.handleGetIdentity)
				r.Get("/settings", s.handleGetSettings)

				r.Group(func(r chi.Router) {
					r.Use(s.adminMiddleware)
					r.Put("/identity", s.handleSetIdentity)
					r.Patch("/settings", s.handleUpdateSettings)
				})
			})

			// Event history
			r.Get("/history", s.handleHistory)

			// Account management (admin only, except /users/me via /auth/me)
			r.Route("/users", func(r chi.Router) {
				r.Use(s.adminMiddleware)
				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)
				r.Delete("/{id}", s.handleDeleteUser)
				r.Put("/{id}/password", s.handleSetUserPassword)
			})

			// WebSocket (auth via ticket, validated in handler)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"version":     s.version,
		"initialized": s.hub.IsInitialized(),
	})
}
