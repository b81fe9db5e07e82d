// Package failures maps upstream client errors to the proxy's HTTP error contract.
//
// # Taxonomy
//
// Every failure is reduced to a [Kind], an HTTP status and a [Detail] body:
//
//	structure_changed  503  a required key vanished from an upstream document
//	invalid_input      400  the caller sent something the upstream rejects
//	timeout            504  the upstream did not answer in time
//	connection         503  the upstream could not be reached
//	unavailable        503  the upstream is failing or the breaker is open
//	auth_required      401  the operation needs credentials
//	not_found          404  the content does not exist or is unplayable
//	forbidden          403  the credentials lack access
//	rate_limited       429  the upstream is throttling us
//	internal           500  anything else
//
// [Classify] applies an [Operation]'s own [Rule] values before the generic
// mapping, which lets routes turn a known parse failure into a 404 without
// touching the shared table.
//
// # Logging
//
// [Level] picks the log level for a status: client errors are expected and
// logged at INFO, server errors at ERROR.
package failures
