package service

import (
	"context"

	"github.com/deppfellow/booking-backend/internal/model"
	"github.com/deppfellow/booking-backend/internal/validation"
)

type CreateLocation struct {
	Name     string `json:"name" validate:"required,max=120"`
	Address  string `json:"address" validate:"max=255"`
	Phone    string `json:"phone" validate:"omitempty,e164"`
	IsActive *bool  `json:"is_active"`
}

func (r *CreateLocation) Validate() error { return validation.Struct(r) }

type UpdateLocation struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
	CreateLocation
}

func (r *UpdateLocation) Validate() error { return validation.Struct(r) }

type locationStore interface {
	reader[model.Location]
	deleter
	Create(ctx context.Context, l model.Location) (model.Location, error)
	Update(ctx context.Context, l model.Location) (model.Location, error)
}

// LocationService handles location commands.
type LocationService struct {
	repo locationStore
}

func NewLocationService(repo locationStore) *LocationService {
	return &LocationService{repo: repo}
}

func (s *LocationService) Create(ctx context.Context, req CreateLocation) (model.Location, error) {
	return s.repo.Create(ctx, req.location())
}

func (s *LocationService) Update(ctx context.Context, req UpdateLocation) (model.Location, error) {
	l := req.location()
	l.ID = req.ID
	return s.repo.Update(ctx, l)
}

func (r CreateLocation) location() model.Location {
	return model.Location{
		Name:     r.Name,
		Address:  r.Address,
		Phone:    r.Phone,
		IsActive: activeOrDefault(r.IsActive),
	}
}

type CreateService struct {
	Name            string `json:"name" validate:"required,max=120"`
	Description     string `json:"description" validate:"max=2000"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=5,max=720"`
	PriceCents      int64  `json:"price_cents" validate:"min=0"`
	IsActive        *bool  `json:"is_active"`
}

func (r *CreateService) Validate() error { return validation.Struct(r) }

type UpdateService struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
	CreateService
}

func (r *UpdateService) Validate() error { return validation.Struct(r) }

type serviceStore interface {
	reader[model.Service]
	deleter
	Create(ctx context.Context, s model.Service) (model.Service, error)
	Update(ctx context.Context, s model.Service) (model.Service, error)
}

// CatalogService handles the services a location offers.
type CatalogService struct {
	repo serviceStore
}

func NewCatalogService(repo serviceStore) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) Create(ctx context.Context, req CreateService) (model.Service, error) {
	return s.repo.Create(ctx, req.service())
}

func (s *CatalogService) Update(ctx context.Context, req UpdateService) (model.Service, error) {
	svc := req.service()
	svc.ID = req.ID
	return s.repo.Update(ctx, svc)
}

func (r CreateService) service() model.Service {
	return model.Service{
		Name:            r.Name,
		Description:     r.Description,
		DurationMinutes: r.DurationMinutes,
		PriceCents:      r.PriceCents,
		IsActive:        activeOrDefault(r.IsActive),
	}
}

// activeOrDefault treats an omitted is_active as true.
func activeOrDefault(v *bool) bool {
	return v == nil || *v
}
