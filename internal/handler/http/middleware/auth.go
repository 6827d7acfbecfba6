package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/atlashr/hr-backend-go/internal/domain/auth"
	"github.com/atlashr/hr-backend-go/internal/handler/http/response"
)

func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}
			tokenType, ok := claims["type"].(string)
			if tokenType != "access" || !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

// Caller rebuilds the authorization context from the verified token claims.
func Caller(r *http.Request) (auth.Context, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return auth.Context{}, auth.ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return auth.Context{}, auth.ErrInvalidToken
	}
	roleStr, ok := claims["role"].(string)
	if !ok {
		return auth.Context{}, auth.ErrInvalidToken
	}

	caller := auth.Context{
		UserID: userID,
		Role:   auth.Role(roleStr),
	}
	if employeeID, ok := claims["employee_id"].(string); ok {
		caller.EmployeeID = employeeID
	}
	if managed, ok := claims["managed_employee_ids"].([]interface{}); ok {
		for _, id := range managed {
			if s, ok := id.(string); ok {
				caller.ManagedEmployeeIDs = append(caller.ManagedEmployeeIDs, s)
			}
		}
	}
	return caller, nil
}
