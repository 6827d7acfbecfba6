package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/atlashr/hr-backend-go/internal/domain/auth"
	"github.com/atlashr/hr-backend-go/internal/handler/http/response"
)

// RequireHR requires the hr_admin role.
func RequireHR(next http.Handler) http.Handler {
	return requireRoles(next, auth.RoleHRAdmin)
}

// RequireManager requires manager or hr_admin.
func RequireManager(next http.Handler) http.Handler {
	return requireRoles(next, auth.RoleManager, auth.RoleHRAdmin)
}

func requireRoles(next http.Handler, allowed ...auth.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, auth.ErrForbidden)
			return
		}

		roleStr, ok := claims["role"].(string)
		if !ok {
			response.HandleError(w, auth.ErrForbidden)
			return
		}

		role := auth.Role(roleStr)
		for _, a := range allowed {
			if role == a {
				next.ServeHTTP(w, r)
				return
			}
		}
		response.HandleError(w, auth.ErrForbidden)
	})
}
