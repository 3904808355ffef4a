// Package validation binds Echo requests into command and query structs and
// checks their `validate` tags, reporting failures as field errors keyed by
// the json, query or path name the client sent.
package validation
