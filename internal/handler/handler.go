// Package handler is the HTTP layer. Each endpoint binds and validates a
// request struct, stamps the authenticated actor on commands and sends the
// request through the mediator dispatcher.
package handler
