package employee

import "time"

type EmploymentType string

const (
	EmploymentTypeFullTime EmploymentType = "full_time"
	EmploymentTypePartTime EmploymentType = "part_time"
	EmploymentTypeContract EmploymentType = "contract"
	EmploymentTypeIntern   EmploymentType = "intern"
)

// Employee entity. Only the fields the policy engine evaluates against are
// modeled here; payroll/profile data lives elsewhere.
type Employee struct {
	ID             string
	UserID         *string
	FirstName      string
	LastName       string
	Department     string
	PositionTitle  *string
	EmploymentType EmploymentType
	HireDate       time.Time
	ManagerID      *string
	IsActive       bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// TenureDays returns whole days of service as of a given date.
func (e Employee) TenureDays(asOf time.Time) int {
	if asOf.Before(e.HireDate) {
		return 0
	}
	return int(asOf.Sub(e.HireDate).Hours() / 24)
}
