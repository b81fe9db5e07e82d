// Package repositories implements SQLite persistence for the proxy's operational records.
//
// Key Implementations:
//   - [HealthCheckRepository] : probe history served at /api/health/history
//   - [ErrorEventRepository] : classified failures served at /api/errors
//
// Records are append-only. List returns newest first and honours "limit" and "since"
// criteria; Prune removes records older than the configured retention.
// Missing records are reported with [shared.ErrNotFound].
package repositories
