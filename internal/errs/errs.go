// Package errs defines the error shapes returned to API clients.
//
// Every error that leaves the HTTP layer is rendered as an HTTPError so the
// frontend can rely on one structure: a machine code, a message, optional
// per-field errors and optional details (e.g. the list of allowed filter
// fields when a filter is rejected).
package errs
