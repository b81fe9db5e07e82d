// Package services defines the [Client] interface for YouTube Music and implements it natively against InnerTube.
//
// # Client
//
// [YouTubeMusic] posts JSON to music.youtube.com/youtubei/v1/{endpoint} with a WEB_REMIX client context.
// Every call waits on a token bucket limiter and runs inside a gobreaker circuit breaker.
// Only transport failures, timeouts and upstream 5xx replies count against the breaker.
//
// # Authentication
//
// [LoadCredentials] reads either a browser.json header capture or an oauth.json token:
//   - [BrowserCredentials]: replays the cookie and signs each request with SAPISIDHASH
//   - [OAuthCredentials]: bearer token from an [oauth2.TokenSource] that refreshes itself
//
// [YouTubeMusic.WithCredentials] returns a client sharing limiter and breaker with different credentials,
// which the server uses for per-request auth file overrides.
//
// # Error Handling
//
// Operations return typed errors that the failures package classifies:
//   - [ParseError]: a required key was missing from an upstream document
//   - [InputError]: an argument the upstream would reject
//   - [HTTPError]: non-2xx upstream reply
//   - [ConnectionError], [TimeoutError]: transport failures
//   - [ErrAuthRequired], [ErrUnavailable], [ErrCircuitOpen]
//
// # Proxy API client
//
// [APIService] makes raw calls against a running proxy and backs the CLI's api, health and monitor commands.
package services
