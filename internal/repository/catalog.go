package repository

import (
	"context"

	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/query"
	"github.com/jackc/pgx/v5"
)

var locations = listSpec{
	table:   "locations",
	columns: "id, name, address, phone, is_active, created_at, updated_at",
	filters: map[string]string{
		"is_active": "is_active = @is_active",
		"name":      "name = @name",
	},
	search:  []string{"name", "address"},
	orderBy: map[string]string{"name": "name", "created_at": "created_at"},
}

type LocationRepository struct{}

func (r *LocationRepository) Mapping() Mapping { return locations.mapping() }

func (r *LocationRepository) Find(ctx context.Context, p query.FindParams) (query.FindResult[model.Location], error) {
	return find[model.Location](ctx, locations, p)
}

func (r *LocationRepository) GetByID(ctx context.Context, id int64) (model.Location, error) {
	return getByID[model.Location](ctx, locations, id)
}

func (r *LocationRepository) Create(ctx context.Context, l model.Location) (model.Location, error) {
	return queryOne[model.Location](ctx, locations.table, `
		INSERT INTO locations (name, address, phone, is_active)
		VALUES (@name, @address, @phone, @is_active)
		RETURNING `+locations.columns,
		pgx.NamedArgs{"name": l.Name, "address": l.Address, "phone": l.Phone, "is_active": l.IsActive})
}

func (r *LocationRepository) Update(ctx context.Context, l model.Location) (model.Location, error) {
	return queryOne[model.Location](ctx, locations.table, `
		UPDATE locations
		SET name = @name, address = @address, phone = @phone, is_active = @is_active, updated_at = NOW()
		WHERE id = @id
		RETURNING `+locations.columns,
		pgx.NamedArgs{"id": l.ID, "name": l.Name, "address": l.Address, "phone": l.Phone, "is_active": l.IsActive})
}

func (r *LocationRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, locations.table, id)
}

var services = listSpec{
	table:   "services",
	columns: "id, name, description, duration_minutes, price_cents, is_active, created_at, updated_at",
	filters: map[string]string{
		"is_active":    "is_active = @is_active",
		"max_price":    "price_cents <= @max_price",
		"max_duration": "duration_minutes <= @max_duration",
	},
	search:  []string{"name", "description"},
	orderBy: map[string]string{
		"name":             "name",
		"price_cents":      "price_cents",
		"duration_minutes": "duration_minutes",
	},
}

type ServiceRepository struct{}

func (r *ServiceRepository) Mapping() Mapping { return services.mapping() }

func (r *ServiceRepository) Find(ctx context.Context, p query.FindParams) (query.FindResult[model.Service], error) {
	return find[model.Service](ctx, services, p)
}

func (r *ServiceRepository) GetByID(ctx context.Context, id int64) (model.Service, error) {
	return getByID[model.Service](ctx, services, id)
}

func (r *ServiceRepository) Create(ctx context.Context, s model.Service) (model.Service, error) {
	return queryOne[model.Service](ctx, services.table, `
		INSERT INTO services (name, description, duration_minutes, price_cents, is_active)
		VALUES (@name, @description, @duration_minutes, @price_cents, @is_active)
		RETURNING `+services.columns,
		serviceArgs(s))
}

func (r *ServiceRepository) Update(ctx context.Context, s model.Service) (model.Service, error) {
	return queryOne[model.Service](ctx, services.table, `
		UPDATE services
		SET name = @name, description = @description, duration_minutes = @duration_minutes,
		    price_cents = @price_cents, is_active = @is_active, updated_at = NOW()
		WHERE id = @id
		RETURNING `+services.columns,
		serviceArgs(s))
}

func (r *ServiceRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, services.table, id)
}

func serviceArgs(s model.Service) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":               s.ID,
		"name":             s.Name,
		"description":      s.Description,
		"duration_minutes": s.DurationMinutes,
		"price_cents":      s.PriceCents,
		"is_active":        s.IsActive,
	}
}
