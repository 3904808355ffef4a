// Package mediator routes a typed request (command or query) to exactly one
// handler.
//
// Handlers are registered explicitly at startup with Register. Build freezes
// the registry into a Dispatcher; nothing can be registered afterwards, so
// request-handling code only ever reads the handler table. Send looks the
// handler up by the request's concrete type and runs it through the
// configured behaviors (transaction, logging, metrics, tracing).
package mediator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/rs/zerolog"
)

var (
	ErrDuplicateHandler = errors.New("mediator: handler already registered")
	ErrRegistryFrozen   = errors.New("mediator: registry is frozen")
	ErrInterfaceRequest = errors.New("mediator: request type must be concrete")
)

// Handler handles one request type.
type Handler[Req any, Res any] interface {
	Handle(ctx context.Context, req Req) (Res, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[Req any, Res any] func(ctx context.Context, req Req) (Res, error)

func (f HandlerFunc[Req, Res]) Handle(ctx context.Context, req Req) (Res, error) {
	return f(ctx, req)
}

// Next invokes the rest of the pipeline.
type Next func(ctx context.Context, req any) (any, error)

// Behavior wraps every dispatch. Behaviors run in the order given to Build,
// the first one outermost.
type Behavior func(ctx context.Context, req any, next Next) (any, error)

// Registry collects handlers during startup.
type Registry struct {
	handlers map[reflect.Type]Next
	frozen   bool
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[reflect.Type]Next)}
}

// Register binds handler to the request type Req.
//
// A second registration for the same type is rejected instead of silently
// replacing the first one.
func Register[Req any, Res any](r *Registry, handler Handler[Req, Res]) error {
	if r.frozen {
		return ErrRegistryFrozen
	}

	t := reflect.TypeFor[Req]()
	if t.Kind() == reflect.Interface {
		return fmt.Errorf("%w: %s", ErrInterfaceRequest, t)
	}
	if _, ok := r.handlers[t]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, t)
	}

	r.handlers[t] = func(ctx context.Context, req any) (any, error) {
		return handler.Handle(ctx, req.(Req))
	}
	return nil
}

// Build freezes the registry and returns the Dispatcher.
func (r *Registry) Build(behaviors ...Behavior) *Dispatcher {
	r.frozen = true

	handlers := make(map[reflect.Type]Next, len(r.handlers))
	for t, h := range r.handlers {
		handlers[t] = h
	}

	return &Dispatcher{
		handlers:  handlers,
		behaviors: append([]Behavior(nil), behaviors...),
	}
}

// Dispatcher is immutable and safe for concurrent use.
type Dispatcher struct {
	handlers  map[reflect.Type]Next
	behaviors []Behavior
}

// Requests lists the registered request types, sorted.
func (d *Dispatcher) Requests() []string {
	names := make([]string, 0, len(d.handlers))
	for t := range d.handlers {
		names = append(names, t.String())
	}
	sort.Strings(names)
	return names
}

// Dispatch runs req through the behaviors and its handler.
func (d *Dispatcher) Dispatch(ctx context.Context, req any) (any, error) {
	t := reflect.TypeOf(req)

	handler, ok := d.handlers[t]
	if !ok {
		err := &HandlerNotFoundError{RequestType: typeName(t)}
		zerolog.Ctx(ctx).Error().Err(err).Str("request", err.RequestType).Msg("dispatch failed: no handler")
		return nil, err
	}

	next := handler
	for i := len(d.behaviors) - 1; i >= 0; i-- {
		behavior, inner := d.behaviors[i], next
		next = func(ctx context.Context, req any) (any, error) {
			return behavior(ctx, req, inner)
		}
	}

	return next(ctx, req)
}

// Send dispatches req and returns its typed result.
func Send[Res any](ctx context.Context, d *Dispatcher, req any) (Res, error) {
	var zero Res

	out, err := d.Dispatch(ctx, req)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}

	res, ok := out.(Res)
	if !ok {
		return zero, fmt.Errorf("mediator: %s returned %T, want %s", RequestName(req), out, reflect.TypeFor[Res]())
	}
	return res, nil
}

// RequestName is the short type name of req, e.g. "service.CreateAppointment".
func RequestName(req any) string {
	return typeName(reflect.TypeOf(req))
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}
