package employee

import "context"

// EmployeeRepository - interface for employees table
type EmployeeRepository interface {
	Create(ctx context.Context, emp Employee) (Employee, error)
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByUserID(ctx context.Context, userID string) (Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
	Update(ctx context.Context, emp Employee) error
}
