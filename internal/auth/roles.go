package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civic-stack/request-service/internal/domain"
	apperrors "github.com/civic-stack/request-service/pkg/util/errorutil"
)

// RequireCitizen ensures a citizen is authenticated.
func RequireCitizen() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeCitizen || principal.Citizen == nil {
			return apperrors.NewForbidden("citizen account required")
		}
		return c.Next()
	}
}

// RequireStaff ensures the caller is an authenticated staff member,
// optionally restricted to the given roles. Action-level role checks
// happen in the lifecycle service; this guard only fences off the staff
// surface as a whole.
func RequireStaff(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeStaff || principal.Staff == nil {
			return apperrors.NewForbidden("staff role required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
