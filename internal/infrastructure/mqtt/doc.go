// Package mqtt provides the MQTT transport between the hub and its fleet
// of controllers.
//
// # Architecture
//
// Controllers publish status and telemetry under fleethub/{category}/{id}
// and the hub subscribes with single-level wildcards. Commands flow the
// other way on fleethub/command/{id}, acknowledged on fleethub/ack/{id}.
// The hub announces its own presence (and crash, via LWT) on
// fleethub/system/status.
//
// # Reliability
//
// The client auto-reconnects with exponential backoff and restores all
// tracked subscriptions on reconnect. Handlers run with panic recovery;
// a misbehaving handler cannot take down the transport.
//
// Topic construction goes through the Topics helpers so the naming scheme
// lives in exactly one place.
package mqtt
