// Package service implements the booking use cases as mediator handlers.
//
// Each request type (CreateAppointment, List[model.Staff], ...) is bound
// once in Register; handlers read and write through the repositories inside
// the unit of work the transaction behavior opens.
package service
