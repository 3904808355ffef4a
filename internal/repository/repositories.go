package repository

// Repositories is a container for all repository instances.
//
// Repositories are stateless: the connection they use comes from the
// UnitOfWork in the request context, so one container is shared by every
// request.
type Repositories struct {
	Locations     *LocationRepository
	Services      *ServiceRepository
	Staff         *StaffRepository
	Customers     *CustomerRepository
	Appointments  *AppointmentRepository
	Shifts        *ShiftRepository
	DayOffs       *DayOffRepository
	Reviews       *ReviewRepository
	Notifications *NotificationRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Locations:     &LocationRepository{},
		Services:      &ServiceRepository{},
		Staff:         &StaffRepository{},
		Customers:     &CustomerRepository{},
		Appointments:  &AppointmentRepository{},
		Shifts:        &ShiftRepository{},
		DayOffs:       &DayOffRepository{},
		Reviews:       &ReviewRepository{},
		Notifications: &NotificationRepository{},
	}
}
