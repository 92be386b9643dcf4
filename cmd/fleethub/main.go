// Fleet Hub - ESP32 Fleet Aggregation Hub
//
// This is the main entry point for the Fleet Hub application.
// Fleet Hub is the central coordinator for a fleet of ESP32 controllers:
//   - Aggregates device status, sensor telemetry and actuator schedules
//   - Routes commands to controllers over MQTT with synchronous settling
//   - Serves a REST + WebSocket API for dashboards and wall panels
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleetforge/fleet-hub/internal/actuator"
	"github.com/fleetforge/fleet-hub/internal/api"
	"github.com/fleetforge/fleet-hub/internal/auth"
	"github.com/fleetforge/fleet-hub/internal/dashboard"
	"github.com/fleetforge/fleet-hub/internal/device"
	"github.com/fleetforge/fleet-hub/internal/dispatch"
	"github.com/fleetforge/fleet-hub/internal/eventbus"
	"github.com/fleetforge/fleet-hub/internal/history"
	"github.com/fleetforge/fleet-hub/internal/hub"
	"github.com/fleetforge/fleet-hub/internal/identity"
	"github.com/fleetforge/fleet-hub/internal/infrastructure/config"
	"github.com/fleetforge/fleet-hub/internal/infrastructure/database"
	"github.com/fleetforge/fleet-hub/internal/infrastructure/influxdb"
	"github.com/fleetforge/fleet-hub/internal/infrastructure/logging"
	"github.com/fleetforge/fleet-hub/internal/infrastructure/mqtt"
	"github.com/fleetforge/fleet-hub/internal/prefs"
	"github.com/fleetforge/fleet-hub/internal/sensor"
	"github.com/fleetforge/fleet-hub/internal/session"
	"github.com/fleetforge/fleet-hub/internal/zone"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// sweepInterval is how often the session checks for silent devices.
const sweepInterval = 30 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Fleet Hub",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Key-value store for identity, dashboard layout and preferences
	kv, err := database.NewKV(ctx, db)
	if err != nil {
		return fmt.Errorf("initialising kv store: %w", err)
	}

	// User accounts
	users, err := auth.NewUserRepository(ctx, db.DB)
	if err != nil {
		return fmt.Errorf("initialising user repository: %w", err)
	}
	if _, err := auth.SeedAdmin(ctx, users, log.Logger); err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}

	// Event bus: the synchronous spine every container hangs off
	bus := eventbus.New()
	bus.SetLogger(log)

	// State containers
	devices := device.NewRegistry(bus)
	devices.SetLogger(log)

	sensors := sensor.NewRegistry(bus, cfg.Hub.SensorHistory)
	sensors.SetLogger(log)

	actuators := actuator.NewRegistry(bus)
	actuators.SetLogger(log)

	zones := zone.NewRegistry(bus)

	dispatcher := dispatch.New(bus, dispatch.DefaultHistorySize)
	dispatcher.SetLogger(log)

	dash := dashboard.NewStore(bus, kv)
	uiPrefs := prefs.NewStore(bus, kv)
	eventLog := history.NewLog(bus, history.DefaultCapacity)

	resolver := identity.NewResolver(bus, kv, cfg.Site.KaiserOverride)
	resolver.SetLogger(log)
	settings := identity.NewSettingsStore(resolver, identity.Settings{
		SiteName:         cfg.Site.Name,
		UnreachableAfter: cfg.GetUnreachableAfter(),
	})

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Session container owns the transport
	transport := &mqttTransportAdapter{client: mqttClient}
	sess := session.New(bus, transport, byte(cfg.MQTT.QoS), cfg.GetUnreachableAfter())
	sess.SetLogger(log)

	// Connectivity transitions feed the session so the fleet's link state
	// is always derived from the live transport.
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
		sess.SetConnected(true)
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
		sess.SetConnected(false)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		exporter := influxdb.NewExporter(bus, influxClient)
		defer exporter.Close()
	} else {
		log.Info("InfluxDB disabled")
	}

	// Hub facade over all containers
	fleetHub := hub.New(hub.Deps{
		Bus:       bus,
		Session:   sess,
		Identity:  resolver,
		Settings:  settings,
		Devices:   devices,
		Sensors:   sensors,
		Actuators: actuators,
		Zones:     zones,
		Dispatch:  dispatcher,
		Dashboard: dash,
		Prefs:     uiPrefs,
	}, cfg.GetCacheTTL())
	fleetHub.SetLogger(log)

	if err := fleetHub.InitializeSystem(ctx); err != nil {
		return fmt.Errorf("initialising system: %w", err)
	}
	log.Info("system initialised",
		"identity", fleetHub.Identity().Value,
		"devices", len(fleetHub.ListDevices()),
	)

	// Flag devices that go silent
	go sess.RunSweeper(ctx, sweepInterval)

	// Start API server
	apiServer, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Security:  cfg.Security,
		Logger:    log,
		Hub:       fleetHub,
		Bus:       bus,
		Sensors:   sensors,
		Actuators: actuators,
		Dispatch:  dispatcher,
		Dashboard: dash,
		Identity:  resolver,
		Zones:     zones,
		History:   eventLog,
		Users:     users,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server started",
		"host", cfg.API.Host,
		"port", cfg.API.Port,
		"tls", cfg.API.TLS.Enabled,
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB exporter and client (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("Fleet Hub stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses FLEETHUB_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FLEETHUB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// mqttTransportAdapter adapts the infrastructure MQTT client to the
// session's Transport interface. The only difference is the Subscribe
// handler parameter: the client takes its named MessageHandler type while
// the interface uses the equivalent function literal.
type mqttTransportAdapter struct {
	client *mqtt.Client
}

// Publish implements session.Transport.
func (a *mqttTransportAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements session.Transport.
func (a *mqttTransportAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	return a.client.Subscribe(topic, qos, mqtt.MessageHandler(handler))
}

// IsConnected implements session.Transport.
func (a *mqttTransportAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
