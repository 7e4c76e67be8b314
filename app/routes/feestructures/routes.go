package feestructures

import (
	"github.com/gofiber/fiber/v2"

	"greenschool/app/config"
	"greenschool/app/database"
	"greenschool/app/routes/auth"
)

// SetupFeeStructureRoutes sets up the fee structure routes
func SetupFeeStructureRoutes(app *fiber.App) {
	store := &database.StructureDB{DB: config.GetDB()}

	api := app.Group("/api/fee-structures")
	api.Use(auth.AuthMiddleware)

	api.Get("/", func(c *fiber.Ctx) error {
		return ListStructuresAPI(c, store)
	})

	api.Get("/resolve", func(c *fiber.Ctx) error {
		return ResolveStructureAPI(c, store)
	})

	api.Get("/:id", func(c *fiber.Ctx) error {
		return GetStructureAPI(c, store)
	})

	api.Post("/", auth.RoleMiddleware("admin", "bursar"), func(c *fiber.Ctx) error {
		return CreateStructureAPI(c, store)
	})

	api.Delete("/:id", auth.RoleMiddleware("admin", "bursar"), func(c *fiber.Ctx) error {
		return DeactivateStructureAPI(c, store)
	})
}
