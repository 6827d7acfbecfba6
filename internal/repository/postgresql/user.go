package postgresql

import (
	"context"
	"errors"

	"github.com/atlashr/hr-backend-go/internal/domain/auth"
	"github.com/atlashr/hr-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) auth.UserRepository {
	return &userRepositoryImpl{db: db}
}

const userColumns = `
	id, email, password_hash, role, employee_id, is_active, created_at, updated_at`

func scanUser(row pgx.Row, u *auth.User) error {
	return row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.EmployeeID, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt,
	)
}

func (r *userRepositoryImpl) Create(ctx context.Context, user auth.User) (auth.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO users (
			id, email, password_hash, role, employee_id, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		uuid.NewString(), user.Email, user.PasswordHash, user.Role, user.EmployeeID, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return auth.User{}, err
	}

	return user, nil
}

func (r *userRepositoryImpl) GetByID(ctx context.Context, id string) (auth.User, error) {
	q := GetQuerier(ctx, r.db)

	var u auth.User
	err := scanUser(q.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE id = $1`, id), &u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.User{}, auth.ErrUserNotFound
		}
		return auth.User{}, err
	}
	return u, nil
}

func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (auth.User, error) {
	q := GetQuerier(ctx, r.db)

	var u auth.User
	err := scanUser(q.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE email = $1`, email), &u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.User{}, auth.ErrUserNotFound
		}
		return auth.User{}, err
	}
	return u, nil
}

func (r *userRepositoryImpl) ListManagedEmployeeIDs(ctx context.Context, employeeID string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT id FROM employees WHERE manager_id = $1 AND is_active`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
