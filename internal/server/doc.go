// Package server provides the HTTP surface of the proxy: a chi router, its middleware and the route handlers.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [ChiRouter] implements it on a chi mux.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [New] installs, outermost first: request ids, panic recovery, access logging, Prometheus metrics, CORS,
// per-IP rate limiting and the X-Auth-File credential override.
//
// # Handler Interface
//
// Each API area implements [Handler]: a tag plus the routes it serves. The same route table drives
// registration and the Swagger document served under /docs.
//
// # Responses
//
// Successful calls return {"message": "OK", "result": ...} with the request's identifying parameters echoed
// alongside. Degraded results from a fallback retry add "warning" and "note".
//
// Every failure goes through the failure classifier and is written as {"detail": {...}} with its HTTP status.
// Retryable failures carry a Retry-After header. Each classified failure is counted, logged at a level that
// matches its status and, when an [EventStore] is configured, recorded for /api/errors.
package server
