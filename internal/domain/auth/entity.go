package auth

import "time"

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleHRAdmin  Role = "hr_admin"
)

// User is an authentication principal. Employee data lives in the employee
// domain; a user optionally maps to one employee record.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	EmployeeID   *string
	IsActive     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Context is the caller-supplied authorization context. It is validated
// upstream; the engine trusts role and ownership checks already performed.
type Context struct {
	UserID             string
	Role               Role
	EmployeeID         string
	ManagedEmployeeIDs []string
}

// Manages reports whether the caller manages the given employee.
func (c Context) Manages(employeeID string) bool {
	for _, id := range c.ManagedEmployeeIDs {
		if id == employeeID {
			return true
		}
	}
	return false
}
