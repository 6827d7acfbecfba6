package postgresql

import (
	"context"
	"errors"

	"github.com/atlashr/hr-backend-go/internal/domain/employee"
	"github.com/atlashr/hr-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	id, user_id, first_name, last_name, department, position_title,
	employment_type, hire_date, manager_id, is_active, created_at, updated_at`

func scanEmployee(row pgx.Row, e *employee.Employee) error {
	return row.Scan(
		&e.ID, &e.UserID, &e.FirstName, &e.LastName, &e.Department, &e.PositionTitle,
		&e.EmploymentType, &e.HireDate, &e.ManagerID, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	)
}

func (r *employeeRepositoryImpl) Create(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employees (
			id, user_id, first_name, last_name, department, position_title,
			employment_type, hire_date, manager_id, is_active,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			NOW(), NOW()
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		uuid.NewString(), emp.UserID, emp.FirstName, emp.LastName, emp.Department, emp.PositionTitle,
		emp.EmploymentType, emp.HireDate, emp.ManagerID, emp.IsActive,
	).Scan(&emp.ID, &emp.CreatedAt, &emp.UpdatedAt)
	if err != nil {
		return employee.Employee{}, err
	}

	return emp, nil
}

func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	var e employee.Employee
	err := scanEmployee(q.QueryRow(ctx, `SELECT`+employeeColumns+` FROM employees WHERE id = $1`, id), &e)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, err
	}
	return e, nil
}

func (r *employeeRepositoryImpl) GetByUserID(ctx context.Context, userID string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	var e employee.Employee
	err := scanEmployee(q.QueryRow(ctx, `SELECT`+employeeColumns+` FROM employees WHERE user_id = $1`, userID), &e)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, err
	}
	return e, nil
}

func (r *employeeRepositoryImpl) ListActive(ctx context.Context) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT`+employeeColumns+` FROM employees WHERE is_active ORDER BY last_name, first_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		var e employee.Employee
		if err := scanEmployee(rows, &e); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *employeeRepositoryImpl) Update(ctx context.Context, emp employee.Employee) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees SET
			first_name = $2, last_name = $3, department = $4, position_title = $5,
			employment_type = $6, manager_id = $7, is_active = $8,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		emp.ID, emp.FirstName, emp.LastName, emp.Department, emp.PositionTitle,
		emp.EmploymentType, emp.ManagerID, emp.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}
