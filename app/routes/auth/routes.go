package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"greenschool/app/models"
)

func SetupAuthRoutes(app *fiber.App) {
	auth := app.Group("/api/auth")

	// Public routes
	auth.Post("/login", LoginAPI)
	auth.Post("/logout", LogoutAPI)

	// Protected routes
	auth.Use(AuthMiddleware)
	auth.Get("/me", MeAPI)
	auth.Post("/change-password", ChangePasswordAPI)
}

// AuthMiddleware validates the JWT and sets the user context. The
// school id on the token is the only tenant scope handlers ever use;
// it is never read from the request body or query string.
func AuthMiddleware(c *fiber.Ctx) error {
	var tokenString string

	// Cookie first, then Authorization header
	tokenString = c.Cookies("jwt_token")
	if tokenString == "" {
		header := c.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			tokenString = strings.TrimPrefix(header, "Bearer ")
		}
	}

	if tokenString == "" {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "No token found"})
	}

	claims, err := ValidateJWT(tokenString)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "error": "Invalid token"})
	}

	user := &models.User{
		ID:        claims.UserID,
		SchoolID:  claims.SchoolID,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Roles:     claims.Roles,
		IsActive:  true,
	}

	c.Locals("user_id", user.ID)
	c.Locals("school_id", user.SchoolID)
	c.Locals("user_email", user.Email)
	c.Locals("user_roles", user.Roles)
	c.Locals("user", user)

	return c.Next()
}

// RoleMiddleware checks that the user carries one of the allowed roles.
func RoleMiddleware(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals("user").(*models.User)

		for _, allowed := range allowedRoles {
			if user.HasRole(allowed) {
				return c.Next()
			}
		}

		return c.Status(403).JSON(fiber.Map{"success": false, "error": "Insufficient permissions"})
	}
}

// SchoolID returns the authenticated tenant scope.
func SchoolID(c *fiber.Ctx) string {
	return c.Locals("school_id").(string)
}

// UserID returns the authenticated user's id.
func UserID(c *fiber.Ctx) string {
	return c.Locals("user_id").(string)
}
