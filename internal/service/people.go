package service

import (
	"context"

	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/validation"
)

type CreateStaff struct {
	LocationID int64  `json:"location_id" validate:"required,gt=0"`
	FullName   string `json:"full_name" validate:"required,max=120"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"omitempty,e164"`
	IsActive   *bool  `json:"is_active"`
}

func (r *CreateStaff) Validate() error { return validation.Struct(r) }

type UpdateStaff struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
	CreateStaff
}

func (r *UpdateStaff) Validate() error { return validation.Struct(r) }

type staffStore interface {
	reader[model.Staff]
	deleter
	Create(ctx context.Context, s model.Staff) (model.Staff, error)
	Update(ctx context.Context, s model.Staff) (model.Staff, error)
}

type StaffService struct {
	repo staffStore
}

func NewStaffService(repo staffStore) *StaffService {
	return &StaffService{repo: repo}
}

func (s *StaffService) Create(ctx context.Context, req CreateStaff) (model.Staff, error) {
	return s.repo.Create(ctx, req.staff())
}

func (s *StaffService) Update(ctx context.Context, req UpdateStaff) (model.Staff, error) {
	st := req.staff()
	st.ID = req.ID
	return s.repo.Update(ctx, st)
}

func (r CreateStaff) staff() model.Staff {
	return model.Staff{
		LocationID: r.LocationID,
		FullName:   r.FullName,
		Email:      r.Email,
		Phone:      r.Phone,
		IsActive:   activeOrDefault(r.IsActive),
	}
}

type CreateCustomer struct {
	FullName string `json:"full_name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,e164"`
}

func (r *CreateCustomer) Validate() error { return validation.Struct(r) }

type UpdateCustomer struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
	CreateCustomer
}

func (r *UpdateCustomer) Validate() error { return validation.Struct(r) }

type customerStore interface {
	reader[model.Customer]
	deleter
	Create(ctx context.Context, c model.Customer) (model.Customer, error)
	Update(ctx context.Context, c model.Customer) (model.Customer, error)
}

type CustomerService struct {
	repo customerStore
}

func NewCustomerService(repo customerStore) *CustomerService {
	return &CustomerService{repo: repo}
}

func (s *CustomerService) Create(ctx context.Context, req CreateCustomer) (model.Customer, error) {
	return s.repo.Create(ctx, req.customer())
}

func (s *CustomerService) Update(ctx context.Context, req UpdateCustomer) (model.Customer, error) {
	c := req.customer()
	c.ID = req.ID
	return s.repo.Update(ctx, c)
}

func (r CreateCustomer) customer() model.Customer {
	return model.Customer{FullName: r.FullName, Email: r.Email, Phone: r.Phone}
}
