// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Connection state and state transitions
//   - Frame and byte rates per direction
//   - Reconnects, auth failures and protocol errors
//   - Outbound queue depth
//
// A nil *Metrics is valid and records nothing.
package metrics
