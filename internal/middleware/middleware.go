// Package middleware holds the Echo middleware chain of the booking API:
// request ids, New Relic tracing, the request-scoped logger, Clerk session
// auth, per-ip rate limiting and the error handler that renders every
// failure as an errs.HTTPError body.
package middleware
