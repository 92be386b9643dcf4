package influxdb

import "errors"

// Sentinel errors; check with errors.Is. Write failures surface through
// the async error callback, not a sentinel.
var (
	// ErrNotConnected indicates the client is not connected.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled indicates the integration is off in configuration.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
