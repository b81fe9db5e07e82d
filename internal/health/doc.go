// Package health probes the upstream and reports the proxy's overall status.
//
// [Prober] runs a one-result search and turns the outcome into a [Report]:
//
//   - healthy : the search succeeded
//   - degraded : the response could not be parsed; simple queries may still work
//   - unhealthy : anything else, usually connectivity
//
// Reports are cached for the configured TTL. Run as a supervised service,
// the prober probes on an interval, records each report in the history store,
// prunes old history and exports the result as a gauge.
//
// [Reporter] combines the latest report with breaker state, recent history,
// error counts and process statistics into the /api/status document.
package health
