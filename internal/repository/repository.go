// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update data, abstracting SQL logic away from the service layer.
//
// Repositories never open connections or transactions themselves: every
// call runs on the transaction of the UnitOfWork carried by the context
// (database.Conn). Not-found errors are annotated as "table:<name>: ..." so
// sqlerr.HandleError can name the entity.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/deppfellow/booking-backend/internal/database"
	"github.com/deppfellow/booking-backend/internal/query"
	"github.com/jackc/pgx/v5"
)

// listSpec describes how one table is listed.
type listSpec struct {
	table   string
	columns string

	// filters maps a filter key to a WHERE fragment using @<key>.
	filters map[string]string

	// search holds the columns matched by the free-text q parameter.
	search []string

	// orderBy maps a sortable field to its column. "id" is always allowed.
	orderBy map[string]string
}

// Mapping lists the filter keys and sortable fields a repository can turn
// into SQL.
type Mapping struct {
	Filters  []string
	Sortable []string
}

func (l listSpec) mapping() Mapping {
	m := Mapping{Sortable: []string{"id"}}
	for k := range l.filters {
		m.Filters = append(m.Filters, k)
	}
	for k := range l.orderBy {
		m.Sortable = append(m.Sortable, k)
	}
	sort.Strings(m.Filters)
	sort.Strings(m.Sortable)
	return m
}

func notFound(table string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("table:%s: %w", table, err)
	}
	return err
}

// bindValue converts filter values pgx cannot encode directly.
func bindValue(v any) any {
	if d, ok := v.(query.Date); ok {
		return d.String()
	}
	return v
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// where builds the WHERE clause and its named arguments.
func (l listSpec) where(p query.FindParams) (string, pgx.NamedArgs, error) {
	args := pgx.NamedArgs{}
	var clauses []string

	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		clause, ok := l.filters[key]
		if !ok {
			return "", nil, fmt.Errorf("%s: filter %q has no column mapping", l.table, key)
		}
		clauses = append(clauses, clause)
		args[key] = bindValue(p.Filters[key])
	}

	if p.Query != "" && len(l.search) > 0 {
		ors := make([]string, len(l.search))
		for i, col := range l.search {
			ors[i] = col + ` ILIKE @q`
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
		args["q"] = "%" + escapeLike(p.Query) + "%"
	}

	if len(clauses) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (l listSpec) order(p query.FindParams) string {
	column := "id"
	if c, ok := l.orderBy[p.OrderBy]; ok {
		column = c
	}

	dir := "ASC"
	if p.SortDir == "desc" {
		dir = "DESC"
	}

	if column == "id" {
		return " ORDER BY id " + dir
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", column, dir, dir)
}

// find runs the count and the page query of a list endpoint.
func find[T any](ctx context.Context, l listSpec, p query.FindParams) (query.FindResult[T], error) {
	conn, err := database.Conn(ctx)
	if err != nil {
		return query.FindResult[T]{}, err
	}

	where, args, err := l.where(p)
	if err != nil {
		return query.FindResult[T]{}, err
	}

	var total int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM "+l.table+where, args).Scan(&total); err != nil {
		return query.FindResult[T]{}, fmt.Errorf("counting %s: %w", l.table, err)
	}

	args["limit"] = p.PageSize
	args["offset"] = p.Offset()
	stmt := "SELECT " + l.columns + " FROM " + l.table + where + l.order(p) + " LIMIT @limit OFFSET @offset"

	rows, err := conn.Query(ctx, stmt, args)
	if err != nil {
		return query.FindResult[T]{}, fmt.Errorf("listing %s: %w", l.table, err)
	}

	data, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return query.FindResult[T]{}, fmt.Errorf("scanning %s: %w", l.table, err)
	}

	return query.FindResult[T]{Data: data, TotalItems: total}, nil
}

// queryOne runs stmt and scans exactly one row into T.
func queryOne[T any](ctx context.Context, table, stmt string, args pgx.NamedArgs) (T, error) {
	var zero T

	conn, err := database.Conn(ctx)
	if err != nil {
		return zero, err
	}

	rows, err := conn.Query(ctx, stmt, args)
	if err != nil {
		return zero, err
	}

	item, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		return zero, notFound(table, err)
	}
	return item, nil
}

func getByID[T any](ctx context.Context, l listSpec, id int64) (T, error) {
	return queryOne[T](ctx, l.table,
		"SELECT "+l.columns+" FROM "+l.table+" WHERE id = @id",
		pgx.NamedArgs{"id": id})
}

func deleteByID(ctx context.Context, table string, id int64) error {
	conn, err := database.Conn(ctx)
	if err != nil {
		return err
	}

	tag, err := conn.Exec(ctx, "DELETE FROM "+table+" WHERE id = @id", pgx.NamedArgs{"id": id})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(table, pgx.ErrNoRows)
	}
	return nil
}
