// Package api provides the HTTP REST API and WebSocket server for Fleet Hub.
//
// It exposes fleet state reads, command dispatch, configuration, and
// real-time event relay to user interfaces (dashboard web app, mobile
// clients, ops tooling).
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fleetforge/fleet-hub/internal/actuator"
	"github.com/fleetforge/fleet-hub/internal/auth"
	"github.com/fleetforge/fleet-hub/internal/dashboard"
	"github.com/fleetforge/fleet-hub/internal/dispatch"
	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/history"
	"github.com/fleetforge/fleet-hub/internal/hub"
	"github.com/fleetforge/fleet-hub/internal/identity"
	"github.com/fleetforge/fleet-hub/internal/infrastructure/config"
	"github.com/fleetforge/fleet-hub/internal/infrastructure/logging"
	"github.com/fleetforge/fleet-hub/internal/sensor"
	"github.com/fleetforge/fleet-hub/internal/zone"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Hub      *hub.Hub
	Bus      *eventbus.Bus

	// Containers reached directly for operations the hub facade does not
	// mediate (rule CRUD, command history, dashboard layout, accounts).
	Sensors   *sensor.Registry
	Actuators *actuator.Registry
	Dispatch  *dispatch.Dispatcher
	Dashboard *dashboard.Store
	Identity  *identity.Resolver
	Zones     *zone.Registry
	History   *history.Log
	Users     *auth.UserRepository

	Version string
}

// Server is the HTTP API server for Fleet Hub.
//
// It manages the HTTP listener, routes, middleware, and WebSocket relay.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	secCfg    config.SecurityConfig
	logger    *logging.Logger
	hub       *hub.Hub
	bus       *eventbus.Bus
	sensors   *sensor.Registry
	actuators *actuator.Registry
	dispatch  *dispatch.Dispatcher
	dashboard *dashboard.Store
	identity  *identity.Resolver
	zones     *zone.Registry
	history   *history.Log
	users     *auth.UserRepository
	version   string

	server  *http.Server
	relay   *Relay
	tickets *ticketStore
	cancel  context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, hub, bus)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Hub == nil {
		return nil, fmt.Errorf("hub is required")
	}
	if deps.Bus == nil {
		return nil, fmt.Errorf("event bus is required")
	}
	// Users is optional; without it login is limited to the panel passcode

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		hub:       deps.Hub,
		bus:       deps.Bus,
		sensors:   deps.Sensors,
		actuators: deps.Actuators,
		dispatch:  deps.Dispatch,
		dashboard: deps.Dashboard,
		identity:  deps.Identity,
		zones:     deps.Zones,
		history:   deps.History,
		users:     deps.Users,
		version:   deps.Version,
		tickets:   newTicketStore(),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket relay, attaches the relay to
// the event bus for real-time broadcast, and launches the HTTP listener in
// a background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.relay = NewRelay(s.wsCfg, s.logger)
	go s.relay.Run(srvCtx)
	s.relay.AttachBus(s.bus)

	// Periodic ticket cleanup to prevent memory leaks
	go s.tickets.cleanLoop(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (relay, ticket cleanup)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
