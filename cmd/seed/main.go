// Seeds a fresh database with the default catalog: leave types, their
// policies, a baseline overtime policy, and an initial HR admin account.
// Safe to run only once; reruns fail on the unique leave type codes.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atlashr/hr-backend-go/internal/config"
	"github.com/atlashr/hr-backend-go/internal/domain/auth"
	"github.com/atlashr/hr-backend-go/internal/domain/employee"
	"github.com/atlashr/hr-backend-go/internal/fixtures"
	"github.com/atlashr/hr-backend-go/internal/pkg/database"
	"github.com/atlashr/hr-backend-go/internal/repository/postgresql"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seed failed:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	leaveTypeRepo := postgresql.NewLeaveTypeRepository(db)
	leavePolicyRepo := postgresql.NewLeavePolicyRepository(db)
	overtimePolicyRepo := postgresql.NewOvertimePolicyRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	userRepo := postgresql.NewUserRepository(db)

	types := fixtures.DefaultLeaveTypes()
	for _, t := range types {
		if _, err := leaveTypeRepo.Create(ctx, t); err != nil {
			return fmt.Errorf("leave type %s: %w", t.Code, err)
		}
	}

	now := time.Now().UTC()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, p := range fixtures.DefaultLeavePolicies(types, yearStart) {
		if _, err := leavePolicyRepo.Create(ctx, p); err != nil {
			return fmt.Errorf("leave policy %s: %w", p.Name, err)
		}
	}

	if _, err := overtimePolicyRepo.Create(ctx, fixtures.DefaultOvertimePolicy(yearStart)); err != nil {
		return fmt.Errorf("overtime policy: %w", err)
	}

	adminEmail := envOr("SEED_ADMIN_EMAIL", "admin@example.com")
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		return fmt.Errorf("SEED_ADMIN_PASSWORD is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	emp, err := employeeRepo.Create(ctx, employee.Employee{
		ID:             uuid.NewString(),
		FirstName:      "HR",
		LastName:       "Admin",
		Department:     "hr",
		EmploymentType: employee.EmploymentTypeFullTime,
		HireDate:       now,
		IsActive:       true,
	})
	if err != nil {
		return fmt.Errorf("admin employee: %w", err)
	}

	if _, err := userRepo.Create(ctx, auth.User{
		ID:           uuid.NewString(),
		Email:        adminEmail,
		PasswordHash: string(hash),
		Role:         auth.RoleHRAdmin,
		EmployeeID:   &emp.ID,
		IsActive:     true,
	}); err != nil {
		return fmt.Errorf("admin user: %w", err)
	}

	fmt.Println("seeded default catalog and admin", adminEmail)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
