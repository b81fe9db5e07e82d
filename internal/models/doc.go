// Package models defines the records ytmp persists about the upstream it fronts.
//
// Nothing about music content is stored. The two records describe how the
// upstream behaved:
//
//   - [HealthCheck] : one probe of the upstream search endpoint
//   - [ErrorEvent] : one classified failure as it was returned to a client
//
// Both implement [Model]; [Repository] is the storage contract the sqlite
// repositories satisfy. Records are append-only and are removed by pruning.
package models
