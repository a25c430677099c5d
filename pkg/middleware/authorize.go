package middleware

import (
	"net/http"

	"onspace/pkg/response"
)

// ModeratorRoles are the roles allowed to mutate report lifecycle fields.
var ModeratorRoles = []string{"operator", "manager", "admin"}

func IsModerator(role string) bool {
	for _, r := range ModeratorRoles {
		if r == role {
			return true
		}
	}
	return false
}

// RequireRole ensures the authenticated user has one of the allowed roles.
// Must run after AuthMiddleware.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r)
			if !ok {
				response.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			if !allowed[claims.Role] {
				response.Error(w, http.StatusForbidden, "Acesso restrito a administradores")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireModerator is RequireRole over the moderator role set.
func RequireModerator() func(http.Handler) http.Handler {
	return RequireRole(ModeratorRoles...)
}
