package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/claim-service/internal/domain"
	apperrors "github.com/spec-kit/claim-service/pkg/util/errorutil"
)

// RequireUser ensures a reporter is authenticated.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeUser || principal.User == nil {
			return apperrors.NewForbidden("reporter account required")
		}
		return c.Next()
	}
}

// RequireAdmin ensures a support admin is authenticated. This gates the
// whole claim workflow surface; which admin may act on a specific ticket is
// decided per call by the access policy.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeAdmin || principal.Admin == nil {
			return apperrors.NewForbidden("admin required")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated (user or admin).
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
