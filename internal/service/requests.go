package service

import (
	"context"

	"github.com/deppfellow/booking-backend/internal/mediator"
	"github.com/deppfellow/booking-backend/internal/query"
	"github.com/deppfellow/booking-backend/internal/validation"
	"github.com/jackc/pgx/v5"
)

var readOnly = pgx.TxOptions{AccessMode: pgx.ReadOnly}

// List is the paginated list query of entity T.
type List[T any] struct {
	query.ListParams
}

func (List[T]) TxOptions() pgx.TxOptions { return readOnly }

// Get fetches one T by id.
type Get[T any] struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (r *Get[T]) Validate() error { return validation.Struct(r) }

func (Get[T]) TxOptions() pgx.TxOptions { return readOnly }

// Delete removes one T by id.
type Delete[T any] struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (r *Delete[T]) Validate() error { return validation.Struct(r) }

// Deleted is the result of a Delete command.
type Deleted struct {
	ID int64 `json:"id"`
}

// Actor is embedded by commands that record who issued them. The HTTP
// layer fills it from the authenticated session.
type Actor struct {
	ActorID string `json:"-"`
}

func (a *Actor) SetActor(id string) { a.ActorID = id }

type reader[T any] interface {
	query.Finder[T]
	GetByID(ctx context.Context, id int64) (T, error)
}

type deleter interface {
	Delete(ctx context.Context, id int64) error
}

// registerReads registers List[T] and Get[T].
func registerReads[T any](r *mediator.Registry, pipeline query.Pipeline[T], repo reader[T]) error {
	err := mediator.Register[List[T], query.PaginatedResult[any]](r,
		mediator.HandlerFunc[List[T], query.PaginatedResult[any]](func(ctx context.Context, req List[T]) (query.PaginatedResult[any], error) {
			return pipeline.Run(ctx, req.ListParams, repo)
		}))
	if err != nil {
		return err
	}

	return mediator.Register[Get[T], T](r,
		mediator.HandlerFunc[Get[T], T](func(ctx context.Context, req Get[T]) (T, error) {
			return repo.GetByID(ctx, req.ID)
		}))
}

// registerDelete registers Delete[T].
func registerDelete[T any](r *mediator.Registry, repo deleter) error {
	return mediator.Register[Delete[T], Deleted](r,
		mediator.HandlerFunc[Delete[T], Deleted](func(ctx context.Context, req Delete[T]) (Deleted, error) {
			if err := repo.Delete(ctx, req.ID); err != nil {
				return Deleted{}, err
			}
			return Deleted{ID: req.ID}, nil
		}))
}

// handle registers a command or query handler written as a method.
func handle[Req any, Res any](r *mediator.Registry, fn func(context.Context, Req) (Res, error)) error {
	return mediator.Register[Req, Res](r, mediator.HandlerFunc[Req, Res](fn))
}
