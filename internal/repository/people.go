package repository

import (
	"context"

	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/query"
	"github.com/jackc/pgx/v5"
)

var staff = listSpec{
	table:   "staff",
	columns: "id, location_id, full_name, email, phone, is_active, created_at, updated_at",
	filters: map[string]string{
		"location_id": "location_id = @location_id",
		"is_active":   "is_active = @is_active",
		"email":       "email = @email",
	},
	search:  []string{"full_name", "email"},
	orderBy: map[string]string{"full_name": "full_name", "created_at": "created_at"},
}

type StaffRepository struct{}

func (r *StaffRepository) Mapping() Mapping { return staff.mapping() }

func (r *StaffRepository) Find(ctx context.Context, p query.FindParams) (query.FindResult[model.Staff], error) {
	return find[model.Staff](ctx, staff, p)
}

func (r *StaffRepository) GetByID(ctx context.Context, id int64) (model.Staff, error) {
	return getByID[model.Staff](ctx, staff, id)
}

func (r *StaffRepository) Create(ctx context.Context, s model.Staff) (model.Staff, error) {
	return queryOne[model.Staff](ctx, staff.table, `
		INSERT INTO staff (location_id, full_name, email, phone, is_active)
		VALUES (@location_id, @full_name, @email, @phone, @is_active)
		RETURNING `+staff.columns,
		staffArgs(s))
}

func (r *StaffRepository) Update(ctx context.Context, s model.Staff) (model.Staff, error) {
	return queryOne[model.Staff](ctx, staff.table, `
		UPDATE staff
		SET location_id = @location_id, full_name = @full_name, email = @email,
		    phone = @phone, is_active = @is_active, updated_at = NOW()
		WHERE id = @id
		RETURNING `+staff.columns,
		staffArgs(s))
}

func (r *StaffRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, staff.table, id)
}

func staffArgs(s model.Staff) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":          s.ID,
		"location_id": s.LocationID,
		"full_name":   s.FullName,
		"email":       s.Email,
		"phone":       s.Phone,
		"is_active":   s.IsActive,
	}
}

var customers = listSpec{
	table:   "customers",
	columns: "id, full_name, email, phone, created_at, updated_at",
	filters: map[string]string{
		"email": "email = @email",
	},
	search:  []string{"full_name", "email", "phone"},
	orderBy: map[string]string{"full_name": "full_name", "created_at": "created_at"},
}

type CustomerRepository struct{}

func (r *CustomerRepository) Mapping() Mapping { return customers.mapping() }

func (r *CustomerRepository) Find(ctx context.Context, p query.FindParams) (query.FindResult[model.Customer], error) {
	return find[model.Customer](ctx, customers, p)
}

func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (model.Customer, error) {
	return getByID[model.Customer](ctx, customers, id)
}

func (r *CustomerRepository) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	return queryOne[model.Customer](ctx, customers.table, `
		INSERT INTO customers (full_name, email, phone)
		VALUES (@full_name, @email, @phone)
		RETURNING `+customers.columns,
		pgx.NamedArgs{"full_name": c.FullName, "email": c.Email, "phone": c.Phone})
}

func (r *CustomerRepository) Update(ctx context.Context, c model.Customer) (model.Customer, error) {
	return queryOne[model.Customer](ctx, customers.table, `
		UPDATE customers
		SET full_name = @full_name, email = @email, phone = @phone, updated_at = NOW()
		WHERE id = @id
		RETURNING `+customers.columns,
		pgx.NamedArgs{"id": c.ID, "full_name": c.FullName, "email": c.Email, "phone": c.Phone})
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, customers.table, id)
}
