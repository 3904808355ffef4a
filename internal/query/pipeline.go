// Package query implements the list pipeline shared by every collection
// endpoint: filter validation, field selection, ordering, pagination and
// the paginated response envelope.
package query

import (
	"context"
	"slices"
	"strings"

	"github.com/deppfellow/booking-backend/internal/validation"
)

// ListParams are the query-string parameters of a list endpoint.
type ListParams struct {
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=100"`
	OrderBy  string `query:"order_by" validate:"max=64"`
	SortDir  string `query:"sort_dir" validate:"omitempty,oneof=asc desc ASC DESC"`
	Query    string `query:"q" validate:"max=200"`
	Filter   string `query:"filter" validate:"max=4096"`
	Fields   string `query:"fields" validate:"max=1024"`
}

func (p *ListParams) Validate() error {
	return validation.Struct(p)
}

// FindParams is what a repository receives. PageIndex is zero-based.
type FindParams struct {
	PageIndex int
	PageSize  int
	OrderBy   string
	SortDir   string
	Query     string
	Filters   map[string]any
}

// Offset is the number of rows to skip.
func (p FindParams) Offset() int {
	return p.PageIndex * p.PageSize
}

// FindResult is one page of rows plus the total number of matching rows.
type FindResult[T any] struct {
	Data       []T
	TotalItems int
}

// Finder is the repository side of a list endpoint.
type Finder[T any] interface {
	Find(ctx context.Context, params FindParams) (FindResult[T], error)
}

// FinderFunc adapts a function to Finder.
type FinderFunc[T any] func(ctx context.Context, params FindParams) (FindResult[T], error)

func (f FinderFunc[T]) Find(ctx context.Context, params FindParams) (FindResult[T], error) {
	return f(ctx, params)
}

// Pipeline is the list flow of one entity.
type Pipeline[T any] struct {
	Filter          FilterSpec
	Shape           ShapeSpec
	Sortable        []string
	DefaultOrderBy  string
	DefaultPageSize int
}

// Run validates params, fetches one page and shapes it.
//
// Filter, fields and order_by are all checked before the repository is
// called, so invalid parameters are rejected even for empty collections.
func (p Pipeline[T]) Run(ctx context.Context, params ListParams, finder Finder[T]) (PaginatedResult[any], error) {
	filters, err := ParseFilter(params.Filter, p.Filter)
	if err != nil {
		return PaginatedResult[any]{}, err
	}

	if _, err := ParseFields(params.Fields, p.Shape); err != nil {
		return PaginatedResult[any]{}, err
	}

	orderBy := strings.TrimSpace(params.OrderBy)
	if orderBy == "" {
		orderBy = p.DefaultOrderBy
	} else if !slices.Contains(p.Sortable, orderBy) {
		return PaginatedResult[any]{}, &InvalidSortError{Field: orderBy, Allowed: slices.Clone(p.Sortable)}
	}

	sortDir := strings.ToLower(params.SortDir)
	if sortDir != "desc" {
		sortDir = "asc"
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = max(p.DefaultPageSize, 1)
	}

	found, err := finder.Find(ctx, FindParams{
		PageIndex: page - 1,
		PageSize:  pageSize,
		OrderBy:   orderBy,
		SortDir:   sortDir,
		Query:     strings.TrimSpace(params.Query),
		Filters:   filters,
	})
	if err != nil {
		return PaginatedResult[any]{}, err
	}

	data, err := Shape(found.Data, params.Fields, p.Shape)
	if err != nil {
		return PaginatedResult[any]{}, err
	}

	return PaginatedResult[any]{
		Data: data,
		Meta: ComputeMeta(page, pageSize, found.TotalItems),
	}, nil
}
