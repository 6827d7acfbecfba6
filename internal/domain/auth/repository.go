package auth

import "context"

// UserRepository - interface for users table
type UserRepository interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// ListManagedEmployeeIDs returns the employee ids reporting to the
	// user's employee record.
	ListManagedEmployeeIDs(ctx context.Context, employeeID string) ([]string, error)
}
