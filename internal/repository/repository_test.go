package repository

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/deppfellow/booking-backend/internal/database"
	"github.com/deppfellow/booking-backend/internal/query"
	"github.com/jackc/pgx/v5"
)

func TestWhereJoinsFiltersInKeyOrder(t *testing.T) {
	day := query.Date(time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC))

	where, args, err := appointments.where(query.FindParams{
		Filters: map[string]any{"status": "scheduled", "date_from": day, "staff_id": int64(1)},
	})
	if err != nil {
		t.Fatalf("where: %v", err)
	}

	want := " WHERE " + dateFromClause + " AND staff_id = @staff_id AND status = @status"
	if where != want {
		t.Fatalf("where = %q\nwant    %q", where, want)
	}
	if args["date_from"] != "2025-12-24" || args["staff_id"] != int64(1) {
		t.Fatalf("args = %v", args)
	}
}

func TestWhereSearchEscapesLikePatterns(t *testing.T) {
	where, args, err := locations.where(query.FindParams{Query: `50%_off\`})
	if err != nil {
		t.Fatalf("where: %v", err)
	}

	if where != " WHERE (name ILIKE @q OR address ILIKE @q)" {
		t.Fatalf("where = %q", where)
	}
	if args["q"] != `%50\%\_off\\%` {
		t.Fatalf("q = %q", args["q"])
	}
}

func TestWhereRejectsUnmappedFilter(t *testing.T) {
	_, _, err := locations.where(query.FindParams{Filters: map[string]any{"staff_id": int64(1)}})
	if err == nil {
		t.Fatal("expected an error for a filter without a column mapping")
	}
}

func TestWhereEmpty(t *testing.T) {
	where, args, err := reviews.where(query.FindParams{})
	if err != nil || where != "" || len(args) != 0 {
		t.Fatalf("where = %q, args = %v, err = %v", where, args, err)
	}
}

func TestOrder(t *testing.T) {
	tests := []struct {
		name    string
		orderBy string
		dir     string
		want    string
	}{
		{"default is id", "", "", " ORDER BY id ASC"},
		{"unknown falls back to id", "password", "desc", " ORDER BY id DESC"},
		{"ties broken by id", "starts_at", "asc", " ORDER BY starts_at ASC, id ASC"},
		{"descending", "status", "desc", " ORDER BY status DESC, id DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appointments.order(query.FindParams{OrderBy: tt.orderBy, SortDir: tt.dir})
			if got != tt.want {
				t.Fatalf("order = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotFoundNamesTable(t *testing.T) {
	err := notFound("day_offs", pgx.ErrNoRows)
	if !errors.Is(err, pgx.ErrNoRows) || err.Error() != "table:day_offs: no rows in result set" {
		t.Fatalf("err = %v", err)
	}

	other := errors.New("boom")
	if notFound("day_offs", other) != other {
		t.Fatal("other errors must pass through unchanged")
	}
}

func TestRepositoriesRequireUnitOfWork(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()

	if _, err := repos.Appointments.Find(ctx, query.FindParams{PageSize: 10}); !errors.Is(err, database.ErrNoActiveTransaction) {
		t.Fatalf("Find err = %v", err)
	}
	if err := repos.Locations.Delete(ctx, 1); !errors.Is(err, database.ErrNoActiveTransaction) {
		t.Fatalf("Delete err = %v", err)
	}
}

func TestMappingListsFilterAndSortKeys(t *testing.T) {
	m := (&AppointmentRepository{}).Mapping()

	wantFilters := []string{"customer_id", "date_from", "date_to", "location_id", "service_id", "staff_id", "status"}
	if !slices.Equal(m.Filters, wantFilters) {
		t.Fatalf("filters = %v, want %v", m.Filters, wantFilters)
	}
	wantSortable := []string{"created_at", "id", "starts_at", "status"}
	if !slices.Equal(m.Sortable, wantSortable) {
		t.Fatalf("sortable = %v, want %v", m.Sortable, wantSortable)
	}
}
