package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/deppfellow/booking-backend/internal/mediator"
	"github.com/deppfellow/booking-backend/internal/middleware"
	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/query"
	"github.com/deppfellow/booking-backend/internal/server"
	"github.com/deppfellow/booking-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// locations returns n locations, paged the way the repository would.
func locations(n int) query.Finder[model.Location] {
	return query.FinderFunc[model.Location](func(_ context.Context, p query.FindParams) (query.FindResult[model.Location], error) {
		var page []model.Location
		for i := p.PageIndex * p.PageSize; i < n && len(page) < p.PageSize; i++ {
			page = append(page, model.Location{ID: int64(i + 1), Name: fmt.Sprintf("Branch %d", i+1)})
		}
		return query.FindResult[model.Location]{Data: page, TotalItems: n}, nil
	})
}

type testAPI struct {
	echo      *echo.Echo
	cancelled []service.CancelAppointment
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	api := &testAPI{}

	r := mediator.NewRegistry()
	pipeline := service.NewPipelines(20).Locations
	finder := locations(25)

	err := mediator.Register[service.List[model.Location], query.PaginatedResult[any]](r,
		mediator.HandlerFunc[service.List[model.Location], query.PaginatedResult[any]](
			func(ctx context.Context, req service.List[model.Location]) (query.PaginatedResult[any], error) {
				return pipeline.Run(ctx, req.ListParams, finder)
			}))
	if err != nil {
		t.Fatalf("Register list: %v", err)
	}

	err = mediator.Register[service.CancelAppointment, model.Appointment](r,
		mediator.HandlerFunc[service.CancelAppointment, model.Appointment](
			func(_ context.Context, req service.CancelAppointment) (model.Appointment, error) {
				api.cancelled = append(api.cancelled, req)
				return model.Appointment{ID: req.ID, Status: model.AppointmentCancelled}, nil
			}))
	if err != nil {
		t.Fatalf("Register cancel: %v", err)
	}

	s := &server.Server{}
	h := NewHandler(s, r.Build())

	e := echo.New()
	e.HTTPErrorHandler = middleware.NewGlobalMiddlewares(s).GlobalErrorHandler
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if user := c.Request().Header.Get("X-Test-User"); user != "" {
				c.Set(middleware.UserIDKey, user)
			}
			return next(c)
		}
	})

	e.GET("/locations", Dispatch[service.List[model.Location], query.PaginatedResult[any]](h, http.StatusOK))
	e.POST("/appointments/:id/cancel", Dispatch[service.CancelAppointment, model.Appointment](h, http.StatusOK))
	// Never registered with the dispatcher.
	e.GET("/staff/:id", Dispatch[service.Get[model.Staff], model.Staff](h, http.StatusOK))

	api.echo = e
	return api
}

func (a *testAPI) do(t *testing.T, method, target string, header http.Header) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("%s %s: decoding %q: %v", method, target, rec.Body.String(), err)
	}
	return rec.Code, body
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, _ := item.(string)
		out = append(out, s)
	}
	return out
}

func TestListRejectsUnknownField(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(t, http.MethodGet, "/locations?fields=unknown_field", nil)

	if status != http.StatusBadRequest || body["code"] != "INVALID_FIELDS" {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	details, _ := body["details"].(map[string]any)
	if invalid := stringList(details["invalid_fields"]); !slices.Equal(invalid, []string{"unknown_field"}) {
		t.Fatalf("invalid_fields = %v", invalid)
	}
	if allowed := stringList(details["allowed_fields"]); !slices.Contains(allowed, "name") || !slices.Contains(allowed, "id") {
		t.Fatalf("allowed_fields = %v", allowed)
	}
}

func TestListPagination(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(t, http.MethodGet, "/locations?page=3&page_size=10", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}

	meta, _ := body["meta"].(map[string]any)
	want := map[string]float64{"page": 3, "page_size": 10, "page_count": 3, "total": 25}
	for k, v := range want {
		if meta[k] != v {
			t.Fatalf("meta[%s] = %v, want %v", k, meta[k], v)
		}
	}
	if data, _ := body["data"].([]any); len(data) != 5 {
		t.Fatalf("%d rows on the last page, want 5", len(data))
	}
}

func TestListShapesFields(t *testing.T) {
	api := newTestAPI(t)

	_, body := api.do(t, http.MethodGet, "/locations?page_size=1&fields=name", nil)

	data, _ := body["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("data = %v", data)
	}
	row, _ := data[0].(map[string]any)
	if len(row) != 2 || row["id"] != float64(1) || row["name"] != "Branch 1" {
		t.Fatalf("row = %v, want only id and name", row)
	}
}

func TestListRejectsInvalidPageSize(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(t, http.MethodGet, "/locations?page_size=500", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %v", status, body)
	}
}

func TestDispatchStampsActorAndPathID(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(t, http.MethodPost, "/appointments/7/cancel", http.Header{"X-Test-User": {"user_42"}})
	if status != http.StatusOK || body["status"] != "cancelled" {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if len(api.cancelled) != 1 || api.cancelled[0].ID != 7 || api.cancelled[0].ActorID != "user_42" {
		t.Fatalf("cancelled = %+v", api.cancelled)
	}

	// Every call binds into a fresh request.
	api.do(t, http.MethodPost, "/appointments/8/cancel", nil)
	if got := api.cancelled[1]; got.ID != 8 || got.ActorID != "" {
		t.Fatalf("second request = %+v", got)
	}
}

func TestDispatchValidatesPathID(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(t, http.MethodPost, "/appointments/0/cancel", nil)
	if status != http.StatusBadRequest || len(api.cancelled) != 0 {
		t.Fatalf("status = %d, body = %v", status, body)
	}
}

func TestUnregisteredRequestIsInternalError(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(t, http.MethodGet, "/staff/1", nil)
	if status != http.StatusInternalServerError || body["code"] != "INTERNAL_SERVER_ERROR" {
		t.Fatalf("status = %d, body = %v", status, body)
	}
}
