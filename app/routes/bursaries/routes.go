package bursaries

import (
	"github.com/gofiber/fiber/v2"

	"greenschool/app/config"
	"greenschool/app/database"
	"greenschool/app/routes/auth"
	"greenschool/app/services"
)

// SetupBursaryRoutes sets up the bursary routes
func SetupBursaryRoutes(app *fiber.App) {
	db := config.GetDB()
	store := &database.BursaryDB{DB: db}
	svc := &services.BursaryService{
		Bursaries: store,
		Students:  &database.DirectoryDB{DB: db},
		Events:    &database.OutboxDB{DB: db},
	}

	api := app.Group("/api/bursaries")
	api.Use(auth.AuthMiddleware)

	api.Get("/", func(c *fiber.Ctx) error {
		return ListBursariesAPI(c, store)
	})

	api.Get("/:id", func(c *fiber.Ctx) error {
		return GetBursaryAPI(c, store)
	})

	api.Post("/", auth.RoleMiddleware("admin", "bursar"), func(c *fiber.Ctx) error {
		return CreateBursaryAPI(c, store)
	})

	api.Delete("/:id", auth.RoleMiddleware("admin", "bursar"), func(c *fiber.Ctx) error {
		return RetireBursaryAPI(c, store)
	})

	api.Post("/:id/assign", auth.RoleMiddleware("admin", "bursar"), func(c *fiber.Ctx) error {
		return AssignBursaryAPI(c, svc)
	})

	api.Post("/:id/unassign", auth.RoleMiddleware("admin", "bursar"), func(c *fiber.Ctx) error {
		return UnassignBursaryAPI(c, svc)
	})
}
