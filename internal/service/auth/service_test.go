package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atlashr/hr-backend-go/internal/domain/auth"
	"github.com/atlashr/hr-backend-go/internal/pkg/jwt"
)

type memUsers struct {
	byEmail map[string]auth.User
	reports map[string][]string
}

func (m *memUsers) Create(_ context.Context, u auth.User) (auth.User, error) {
	m.byEmail[u.Email] = u
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (auth.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return auth.User{}, auth.ErrUserNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (auth.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) ListManagedEmployeeIDs(_ context.Context, employeeID string) ([]string, error) {
	return m.reports[employeeID], nil
}

func ptr(s string) *string { return &s }

func newService(users *memUsers) *Service {
	return NewService(users, jwt.NewJWTService("test-secret", "15m", "168h"))
}

func seedUser(t *testing.T, role auth.Role, employeeID *string) *memUsers {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)
	return &memUsers{
		byEmail: map[string]auth.User{
			"dina@example.com": {
				ID:           "user-1",
				Email:        "dina@example.com",
				PasswordHash: string(hash),
				Role:         role,
				EmployeeID:   employeeID,
				IsActive:     true,
			},
		},
		reports: map[string][]string{"emp-1": {"emp-2", "emp-3"}},
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials issue a token pair", func(t *testing.T) {
		svc := newService(seedUser(t, auth.RoleEmployee, ptr("emp-1")))

		resp, err := svc.Login(ctx, auth.LoginRequest{Email: "dina@example.com", Password: "s3cret!"})
		require.NoError(t, err)

		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, "employee", resp.Role)
		assert.Greater(t, resp.AccessExpiresAt, int64(0))
	})

	t.Run("manager tokens carry the report ids", func(t *testing.T) {
		users := seedUser(t, auth.RoleManager, ptr("emp-1"))
		jwtSvc := jwt.NewJWTService("test-secret", "15m", "168h")
		svc := NewService(users, jwtSvc)

		resp, err := svc.Login(ctx, auth.LoginRequest{Email: "dina@example.com", Password: "s3cret!"})
		require.NoError(t, err)

		token, err := jwtSvc.JWTAuth().Decode(resp.AccessToken)
		require.NoError(t, err)
		managed, ok := token.Get("managed_employee_ids")
		require.True(t, ok)
		assert.Len(t, managed, 2)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc := newService(seedUser(t, auth.RoleEmployee, nil))

		_, err := svc.Login(ctx, auth.LoginRequest{Email: "dina@example.com", Password: "nope"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown email maps to the same error as a bad password", func(t *testing.T) {
		svc := newService(seedUser(t, auth.RoleEmployee, nil))

		_, err := svc.Login(ctx, auth.LoginRequest{Email: "ghost@example.com", Password: "s3cret!"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		users := seedUser(t, auth.RoleEmployee, nil)
		u := users.byEmail["dina@example.com"]
		u.IsActive = false
		users.byEmail["dina@example.com"] = u
		svc := newService(users)

		_, err := svc.Login(ctx, auth.LoginRequest{Email: "dina@example.com", Password: "s3cret!"})
		assert.ErrorIs(t, err, auth.ErrUserInactive)
	})
}
